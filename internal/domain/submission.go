package domain

import (
	"strings"
	"time"
)

// AssetCategory enumerates the supported real-world asset classes.
type AssetCategory string

const (
	CategoryRealEstate    AssetCategory = "real-estate"
	CategoryPrivateCredit AssetCategory = "private-credit"
	CategoryCommodity     AssetCategory = "commodity"
	CategoryIPRights      AssetCategory = "ip-rights"
)

// ValidCategory reports whether c is one of the supported categories.
func ValidCategory(c AssetCategory) bool {
	switch c {
	case CategoryRealEstate, CategoryPrivateCredit, CategoryCommodity, CategoryIPRights:
		return true
	}
	return false
}

// Condition grades the physical state of an asset.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// ConditionScore maps a condition grade to a [0,1] multiplier used by the
// vision signal and NAV adjustment.
func ConditionScore(c Condition) float64 {
	switch c {
	case ConditionExcellent:
		return 0.9
	case ConditionGood:
		return 0.75
	case ConditionFair:
		return 0.5
	case ConditionPoor:
		return 0.25
	}
	return 0.5
}

// Status is the submission lifecycle state. Transitions are owned exclusively
// by the submission orchestrator; ELIGIBLE, REJECTED and FAILED are terminal.
type Status string

const (
	StatusReceived             Status = "RECEIVED"
	StatusOracleInProgress     Status = "ORACLE_IN_PROGRESS"
	StatusOracleDone           Status = "ORACLE_DONE"
	StatusABMInProgress        Status = "ABM_IN_PROGRESS"
	StatusABMDone              Status = "ABM_DONE"
	StatusFraudInProgress      Status = "FRAUD_IN_PROGRESS"
	StatusFraudDone            Status = "FRAUD_DONE"
	StatusConsensusCalculating Status = "CONSENSUS_CALCULATING"
	StatusEligible             Status = "ELIGIBLE"
	StatusRejected             Status = "REJECTED"
	StatusFailed               Status = "FAILED"
)

// Terminal reports whether s permits no further stage writes.
func (s Status) Terminal() bool {
	return s == StatusEligible || s == StatusRejected || s == StatusFailed
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location describes where the asset physically sits.
type Location struct {
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	PostalCode  string      `json:"postalCode"`
	Coordinates Coordinates `json:"coordinates"`
}

// Specifications captures the physical properties of the asset.
type Specifications struct {
	// Size in square feet for real estate; unit depends on category.
	Size      float64   `json:"size"`
	Type      string    `json:"type"`
	AgeYears  int       `json:"ageYears"`
	Condition Condition `json:"condition"`
	Floors    int       `json:"floors,omitempty"`
	Units     int       `json:"units,omitempty"`
}

// Shareholder is one entry in the SPV cap table.
type Shareholder struct {
	Holder     string  `json:"holder"`
	Percentage float64 `json:"percentage"`
}

// SPV describes the special purpose vehicle wrapping the asset.
type SPV struct {
	Name              string        `json:"name"`
	RegistrationID    string        `json:"registrationId"`
	Jurisdiction      string        `json:"jurisdiction"`
	IncorporationDate time.Time     `json:"incorporationDate"`
	RegisteredAddress string        `json:"registeredAddress"`
	Directors         []string      `json:"directors"`
	Shareholders      []Shareholder `json:"shareholders"`
}

// Financials carries the submitted income statement of the asset.
type Financials struct {
	// CurrentRent is monthly income.
	CurrentRent     float64 `json:"currentRent"`
	ExpectedYield   float64 `json:"expectedYield"`
	AnnualExpenses  float64 `json:"annualExpenses"`
	OccupancyRate   float64 `json:"occupancyRate"`
	TenantCount     int     `json:"tenantCount"`
	LeaseTermMonths int     `json:"leaseTermMonths"`
}

// Submission is the unit of work flowing through the verification pipeline.
// It is owned exclusively by the orchestrator; every other component reads it
// and never writes.
type Submission struct {
	ID            string `json:"id"`
	SubmitterID   string `json:"submitterId"`
	WalletAddress string `json:"walletAddress"`
	DID           string `json:"did,omitempty"`
	Signature     string `json:"signature"`

	Category       AssetCategory  `json:"category"`
	AssetName      string         `json:"assetName"`
	Location       Location       `json:"location"`
	Specifications Specifications `json:"specifications"`
	SPV            SPV            `json:"spv"`
	RegistryIDs    []string       `json:"registryIds"`
	DocumentURLs   []string       `json:"documentUrls"`
	ImageURLs      []string       `json:"imageUrls"`
	VideoURLs      []string       `json:"videoUrls,omitempty"`
	Financials     Financials     `json:"financials"`
	ClaimedValue   float64        `json:"claimedValue"`
	TargetRaise    float64        `json:"targetRaise"`

	// Mock marks demo submissions that skip the downstream legal-entity
	// workflow. It never influences oracle, ABM, fraud or consensus scoring.
	Mock bool `json:"mock"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// mockPrefixes are the SPV registration-id prefixes that mark a submission as
// mock.
var mockPrefixes = []string{"MOCK-", "DEMO-", "TEST-"}

// IsMockRegistrationID reports whether the SPV registration id follows the
// mock naming convention.
func IsMockRegistrationID(registrationID string) bool {
	for _, p := range mockPrefixes {
		if strings.HasPrefix(registrationID, p) {
			return true
		}
	}
	return false
}
