package domain

import "time"

// Comparable is one simulated market transaction used for NAV estimation.
type Comparable struct {
	ID              string    `json:"id"`
	DistanceKM      float64   `json:"distanceKm"`
	Size            float64   `json:"size"`
	PricePerSqFt    float64   `json:"pricePerSqFt"`
	Yield           float64   `json:"yield"`
	Condition       float64   `json:"condition"`
	TransactionDate time.Time `json:"transactionDate"`
	Similarity      float64   `json:"similarity"`
}

// NAV is the net-asset-value estimate with its confidence band. Higher oracle
// confidence narrows the band.
type NAV struct {
	ComparablesUsed      int     `json:"comparablesUsed"`
	AvgPricePerSqFt      float64 `json:"avgPricePerSqFt"`
	AdjustedPricePerSqFt float64 `json:"adjustedPricePerSqFt"`
	Mean                 float64 `json:"mean"`
	Median               float64 `json:"median"`
	Min                  float64 `json:"min"`
	Max                  float64 `json:"max"`
	Downside             float64 `json:"downside"`
	Upside               float64 `json:"upside"`
	ClaimedVsCalculated  float64 `json:"claimedVsCalculated"`
	Confidence           float64 `json:"confidence"`
}

// YieldAnalysis compares the claimed yield against market comparables.
type YieldAnalysis struct {
	MarketMedian        float64 `json:"marketMedian"`
	Subject             float64 `json:"subject"`
	Spread              float64 `json:"spread"`
	Min                 float64 `json:"min"`
	Max                 float64 `json:"max"`
	Expected            float64 `json:"expected"`
	SustainabilityScore float64 `json:"sustainabilityScore"`
	Confidence          float64 `json:"confidence"`
}

// CashFlowSimulation summarizes the Monte Carlo cash flow runs.
type CashFlowSimulation struct {
	Runs                int       `json:"runs"`
	Years               int       `json:"years"`
	MeanAnnual          []float64 `json:"meanAnnual"`
	P5Annual            []float64 `json:"p5Annual"`
	P95Annual           []float64 `json:"p95Annual"`
	TotalMean           float64   `json:"totalMean"`
	TotalStd            float64   `json:"totalStd"`
	TotalP5             float64   `json:"totalP5"`
	TotalP95            float64   `json:"totalP95"`
	ProbabilityPositive float64   `json:"probabilityPositive"`
	// BreakEvenYear is 1-based; zero means cumulative cash flow never turns
	// positive within the horizon.
	BreakEvenYear int `json:"breakEvenYear,omitempty"`
}

// StressTest is one fixed shock scenario applied to the base cash flow.
type StressTest struct {
	Scenario    string  `json:"scenario"`
	NAVImpact   float64 `json:"navImpactPct"`
	CFImpact    float64 `json:"cfImpactPct"`
	Probability float64 `json:"probability"`
}

// RiskSimulation aggregates the risk model outputs.
type RiskSimulation struct {
	VacancyRiskScore        float64      `json:"vacancyRiskScore"`
	ExpectedVacancyRate     float64      `json:"expectedVacancyRate"`
	WorstCaseVacancy        float64      `json:"worstCaseVacancy"`
	MarketVolatility        float64      `json:"marketVolatility"`
	InterestRateSensitivity float64      `json:"interestRateSensitivity"`
	DurationYears           float64      `json:"durationYears"`
	LiquidityScore          float64      `json:"liquidityScore"`
	EstimatedDaysToSell     int          `json:"estimatedDaysToSell"`
	TailRiskScore           float64      `json:"tailRiskScore"`
	VaR95                   float64      `json:"var95"`
	VaR99                   float64      `json:"var99"`
	ExpectedShortfall       float64      `json:"expectedShortfall"`
	StressTests             []StressTest `json:"stressTests"`
}

// ABMResult is the outcome of the market and cash-flow modeling stage.
type ABMResult struct {
	Comparables        []Comparable       `json:"comparables"`
	NAV                NAV                `json:"nav"`
	Yield              YieldAnalysis      `json:"yield"`
	CashFlow           CashFlowSimulation `json:"cashFlow"`
	Risk               RiskSimulation     `json:"risk"`
	RiskScore          float64            `json:"riskScore"`
	InvestabilityScore float64            `json:"investabilityScore"`
	MarketFitScore     float64            `json:"marketFitScore"`
	Confidence         float64            `json:"confidence"`
	CompletedAt        time.Time          `json:"completedAt"`
}
