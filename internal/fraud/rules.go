package fraud

import (
	"fmt"
	"math"
	"time"

	"assetgate/internal/domain"
)

// anomaly is a triggered rule before severity assignment; the service maps
// the score contribution to a severity using configured cutoffs.
type anomaly struct {
	Type     string
	Detail   string
	Score    float64
	Evidence []string
}

// Rule is one fraud indicator. A nil return means the rule did not trigger.
type Rule struct {
	ID    string
	Check func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly
}

// Rules is the fixed rule set, evaluated in order. Each triggered rule adds
// its score to the total; scores accumulate, they never override each other.
var Rules = []Rule{
	{
		ID: "YIELD_ANOMALY",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			claimed := sub.Financials.ExpectedYield
			market := abm.Yield.MarketMedian
			if market <= 0 || claimed <= market*1.5 {
				return nil
			}
			return &anomaly{
				Type:   "yield_anomaly",
				Detail: fmt.Sprintf("claimed yield %.2f%% is %.0f%% above market median %.2f%%", claimed, (claimed/market-1)*100, market),
				Score:  math.Min(0.4, (claimed/market-1)*0.3),
				Evidence: []string{
					fmt.Sprintf("market median yield: %.2f%%", market),
					fmt.Sprintf("claimed yield: %.2f%%", claimed),
					fmt.Sprintf("comparables range: %.2f%% - %.2f%%", abm.Yield.Min, abm.Yield.Max),
				},
			}
		},
	},
	{
		ID: "SIZE_MISMATCH",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			claimed := sub.Specifications.Size
			verified := rawFloat(oracle.Existence, "satellite", "estimatedSize")
			if claimed <= 0 || verified <= 0 {
				return nil
			}
			discrepancy := math.Abs(claimed-verified) / math.Max(claimed, verified)
			if discrepancy <= 0.25 {
				return nil
			}
			return &anomaly{
				Type:   "size_mismatch",
				Detail: fmt.Sprintf("claimed size %.0f sq ft differs from verified %.0f sq ft by %.0f%%", claimed, verified, discrepancy*100),
				Score:  math.Min(0.35, discrepancy*0.5),
				Evidence: []string{
					fmt.Sprintf("claimed: %.0f sq ft", claimed),
					fmt.Sprintf("satellite estimate: %.0f sq ft", verified),
				},
			}
		},
	},
	{
		ID: "NAV_INFLATION",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			ratio := abm.NAV.ClaimedVsCalculated
			if ratio <= 1.3 {
				return nil
			}
			return &anomaly{
				Type:   "nav_inflation",
				Detail: fmt.Sprintf("claimed value %.0f is %.0f%% above calculated NAV %.0f", sub.ClaimedValue, (ratio-1)*100, abm.NAV.Mean),
				Score:  math.Min(0.4, (ratio-1)*0.4),
				Evidence: []string{
					fmt.Sprintf("claimed value: %.0f", sub.ClaimedValue),
					fmt.Sprintf("calculated NAV: %.0f", abm.NAV.Mean),
					fmt.Sprintf("NAV range: %.0f - %.0f", abm.NAV.Min, abm.NAV.Max),
				},
			}
		},
	},
	{
		ID: "CASHFLOW_INCONSISTENCY",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			if len(abm.CashFlow.MeanAnnual) == 0 {
				return nil
			}
			annualRent := sub.Financials.CurrentRent * 12
			implied := annualRent*(sub.Financials.OccupancyRate/100) - sub.Financials.AnnualExpenses
			simulated := abm.CashFlow.MeanAnnual[0]

			denom := math.Max(math.Abs(implied), math.Abs(simulated))
			if denom == 0 {
				return nil
			}
			discrepancy := math.Abs(implied-simulated) / denom
			if discrepancy <= 0.4 {
				return nil
			}
			return &anomaly{
				Type:   "cashflow_inconsistency",
				Detail: fmt.Sprintf("claimed cash flow %.0f differs from market expectation by %.0f%%", implied, discrepancy*100),
				Score:  math.Min(0.25, discrepancy*0.3),
				Evidence: []string{
					fmt.Sprintf("claimed annual rent: %.0f", annualRent),
					fmt.Sprintf("occupancy: %.0f%%", sub.Financials.OccupancyRate),
					fmt.Sprintf("simulated year 1 cash flow: %.0f", simulated),
				},
			}
		},
	},
	{
		ID: "IMAGE_AUTHENTICITY",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			sig, ok := findSignal(oracle.Existence, "vision")
			if !ok {
				return nil
			}
			authenticity, ok := sig.Evidence.Raw["authenticityScore"].(float64)
			if !ok || authenticity >= 0.7 {
				return nil
			}
			return &anomaly{
				Type:   "suspicious_images",
				Detail: fmt.Sprintf("image authenticity score %.0f%% indicates potential manipulation", authenticity*100),
				Score:  math.Min(0.5, (1-authenticity)*0.6),
				Evidence: []string{
					fmt.Sprintf("authenticity score: %.0f%%", authenticity*100),
					fmt.Sprintf("images analyzed: %d", len(sub.ImageURLs)),
				},
			}
		},
	},
	{
		ID: "OWNERSHIP_VALUE_MISMATCH",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			prob := oracle.Ownership.Score
			value := sub.ClaimedValue
			if value <= 10000000 {
				return nil
			}
			// High-value assets need stronger ownership proof.
			threshold := 0.75
			if value > 50000000 {
				threshold = 0.85
			}
			if prob >= threshold {
				return nil
			}
			return &anomaly{
				Type:   "ownership_risk",
				Detail: fmt.Sprintf("ownership probability %.0f%% is insufficient for asset valued at %.0f", prob*100, value),
				Score:  math.Min(0.3, (threshold-prob)*0.5),
				Evidence: []string{
					fmt.Sprintf("ownership probability: %.0f%%", prob*100),
					fmt.Sprintf("required threshold: %.0f%%", threshold*100),
				},
			}
		},
	},
	{
		ID: "NO_REGISTRY_RECORD",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			sig, ok := findSignal(oracle.Existence, "landregistry")
			if !ok {
				return nil
			}
			if found, _ := sig.Evidence.Raw["recordFound"].(bool); found {
				return nil
			}
			return &anomaly{
				Type:   "no_registry",
				Detail: "no matching record found in property registry databases",
				Score:  0.35,
				Evidence: []string{
					fmt.Sprintf("registry ids checked: %v", sub.RegistryIDs),
					"source: " + sig.Evidence.Source,
				},
			}
		},
	},
	{
		ID: "ACTIVITY_MISMATCH",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			occupancy := sub.Financials.OccupancyRate / 100
			if occupancy <= 0.8 || oracle.ActivityScore >= 0.5 {
				return nil
			}
			return &anomaly{
				Type:   "activity_mismatch",
				Detail: fmt.Sprintf("claimed occupancy %.0f%% inconsistent with activity score %.0f%%", sub.Financials.OccupancyRate, oracle.ActivityScore*100),
				Score:  0.2,
				Evidence: []string{
					fmt.Sprintf("utility score: %.2f", rawFloat(oracle.Existence, "activity", "utilityScore")),
					fmt.Sprintf("tax score: %.2f", rawFloat(oracle.Existence, "activity", "taxScore")),
					fmt.Sprintf("occupancy indicators: %.2f", rawFloat(oracle.Existence, "activity", "occupancyIndicators")),
				},
			}
		},
	},
	{
		ID: "SPV_ANOMALY",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			spv := sub.SPV
			var concerns []string

			// Measured against submission time so the rule stays reproducible.
			if !spv.IncorporationDate.IsZero() && sub.CreatedAt.Sub(spv.IncorporationDate) < 30*24*time.Hour {
				concerns = append(concerns, "SPV incorporated less than 30 days before submission")
			}

			var maxShare float64
			for _, sh := range spv.Shareholders {
				maxShare = math.Max(maxShare, sh.Percentage)
			}
			if len(spv.Shareholders) > 0 && maxShare < 51 {
				concerns = append(concerns, "no majority shareholder (fragmented ownership)")
			}

			if len(spv.Directors) < 2 {
				concerns = append(concerns, "single director structure")
			}

			if len(concerns) == 0 {
				return nil
			}
			return &anomaly{
				Type:     "spv_anomaly",
				Detail:   fmt.Sprintf("SPV structure concerns: %v", concerns),
				Score:    float64(len(concerns)) * 0.08,
				Evidence: concerns,
			}
		},
	},
	{
		ID: "HISTORICAL_FLAGS",
		Check: func(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) *anomaly {
			flags := rawInt(oracle.Existence, "historical", "priorFraudFlags")
			if flags == 0 {
				return nil
			}
			return &anomaly{
				Type:   "historical_fraud",
				Detail: fmt.Sprintf("%d prior fraud flag(s) associated with this submitter", flags),
				Score:  float64(flags) * 0.25,
				Evidence: []string{
					fmt.Sprintf("prior submissions: %d", rawInt(oracle.Existence, "historical", "priorSubmissions")),
					fmt.Sprintf("fraud flags: %d", flags),
				},
			}
		},
	},
}
