package httptransport

import (
	"strings"

	"assetgate/internal/domain"
	dErrors "assetgate/pkg/domain-errors"
	pstrings "assetgate/pkg/platform/strings"
)

// SubmissionRequest is the POST body for a new verification submission. Field
// names follow the public API contract.
type SubmissionRequest struct {
	SubmitterID     string                `json:"submitterId"`
	WalletAddress   string                `json:"walletAddress"`
	WalletSignature string                `json:"walletSignature"`
	DID             string                `json:"did,omitempty"`
	Category        domain.AssetCategory  `json:"category"`
	AssetName       string                `json:"assetName"`
	Location        domain.Location       `json:"location"`
	Specifications  domain.Specifications `json:"specifications"`
	SPV             domain.SPV            `json:"spv"`
	RegistryIDs     []string              `json:"registryIds"`
	DocumentURLs    []string              `json:"documentUrls"`
	ImageURLs       []string              `json:"imageUrls"`
	VideoURLs       []string              `json:"videoUrls,omitempty"`
	Financials      domain.Financials     `json:"financials"`
	ClaimedValue    float64               `json:"claimedValue"`
	TargetRaise     float64               `json:"targetRaise"`
}

// Validate checks the request for required fields and reports all problems at
// once.
func (r SubmissionRequest) Validate() error {
	var missing []string
	if r.Category == "" {
		missing = append(missing, "category")
	}
	if r.Location == (domain.Location{}) {
		missing = append(missing, "location")
	}
	if r.Financials == (domain.Financials{}) {
		missing = append(missing, "financials")
	}
	if r.SubmitterID == "" {
		missing = append(missing, "submitterId")
	}
	if r.WalletSignature == "" {
		missing = append(missing, "walletSignature")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeBadRequest, "missing required fields: "+strings.Join(missing, ", "))
	}
	if !domain.ValidCategory(r.Category) {
		return dErrors.New(dErrors.CodeBadRequest, "unsupported category: "+string(r.Category))
	}
	return nil
}

// ToDomain converts the request into a submission, normalizing the reference
// lists. Identity, mock flag and lifecycle fields are assigned by the
// orchestrator.
func (r SubmissionRequest) ToDomain() domain.Submission {
	r.RegistryIDs = pstrings.DedupeAndTrim(r.RegistryIDs)
	r.DocumentURLs = pstrings.DedupeAndTrim(r.DocumentURLs)
	r.ImageURLs = pstrings.DedupeAndTrim(r.ImageURLs)
	r.VideoURLs = pstrings.DedupeAndTrim(r.VideoURLs)
	return domain.Submission{
		SubmitterID:    r.SubmitterID,
		WalletAddress:  r.WalletAddress,
		Signature:      r.WalletSignature,
		DID:            r.DID,
		Category:       r.Category,
		AssetName:      r.AssetName,
		Location:       r.Location,
		Specifications: r.Specifications,
		SPV:            r.SPV,
		RegistryIDs:    r.RegistryIDs,
		DocumentURLs:   r.DocumentURLs,
		ImageURLs:      r.ImageURLs,
		VideoURLs:      r.VideoURLs,
		Financials:     r.Financials,
		ClaimedValue:   r.ClaimedValue,
		TargetRaise:    r.TargetRaise,
	}
}
