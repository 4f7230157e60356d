// Package abm models the market around a submission: synthetic comparables,
// NAV estimation, yield analysis, Monte Carlo cash flows and stress testing.
package abm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"assetgate/internal/domain"
	"assetgate/internal/oracle/signal"
)

// Service runs the market model for one submission. With a non-zero seed the
// whole analysis is deterministic for identical submission content; seed 0
// falls back to time-based seeding and the simulation is intentionally
// non-repeatable.
type Service struct {
	seed   int64
	runs   int
	years  int
	logger *slog.Logger
}

// NewService constructs the modeler with the standard simulation depth of
// 10,000 runs over a 10 year horizon.
func NewService(seed int64, logger *slog.Logger) *Service {
	return &Service{
		seed:   seed,
		runs:   10000,
		years:  10,
		logger: logger,
	}
}

func (s *Service) rng(sub domain.Submission) *rand.Rand {
	if s.seed == 0 {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(s.seed ^ signal.ContentSeed(sub)))
}

// Analyze produces the full market model for a submission using the oracle
// result's condition assessment to adjust the valuation.
func (s *Service) Analyze(ctx context.Context, sub domain.Submission, oracle *domain.OracleResult) (*domain.ABMResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sub.Specifications.Size <= 0 {
		return nil, fmt.Errorf("cannot model asset with size %.0f", sub.Specifications.Size)
	}

	rng := s.rng(sub)

	comparables := s.comparables(sub, rng)
	nav := s.nav(sub, comparables, oracle, rng)
	yld := s.yield(sub, comparables, nav)
	cashFlow := s.cashFlows(sub, rng)
	risk := s.risks(sub, nav, rng)

	riskScore := math.Round(
		risk.VacancyRiskScore*0.2 +
			risk.MarketVolatility*0.25 +
			(100-risk.LiquidityScore)*0.2 +
			risk.TailRiskScore*100*0.2 +
			(100-cashFlow.ProbabilityPositive*100)*0.15)

	investability := math.Round(
		yld.SustainabilityScore*30 +
			nav.Confidence*20 +
			cashFlow.ProbabilityPositive*30 +
			(100-riskScore)*0.2)

	marketFit := s.marketFit(nav, yld, rng)

	confidence := math.Min(0.95,
		(nav.Confidence+yld.Confidence)/2*0.7+float64(len(comparables))/30*0.3)

	s.logger.InfoContext(ctx, "abm analysis complete",
		"submission_id", sub.ID,
		"mean_nav", nav.Mean,
		"risk_score", riskScore,
		"investability_score", investability,
		"market_fit_score", marketFit,
	)

	return &domain.ABMResult{
		Comparables:        comparables,
		NAV:                nav,
		Yield:              yld,
		CashFlow:           cashFlow,
		Risk:               risk,
		RiskScore:          riskScore,
		InvestabilityScore: investability,
		MarketFitScore:     marketFit,
		Confidence:         confidence,
		CompletedAt:        time.Now().UTC(),
	}, nil
}

// comparables synthesizes 15-35 nearby transactions around the market
// benchmarks, sorted by similarity to the subject.
func (s *Service) comparables(sub domain.Submission, rng *rand.Rand) []domain.Comparable {
	basePrice := priceBenchmark(sub.Location.City)
	baseYield := yieldBenchmark(sub.Specifications.Type)
	size := sub.Specifications.Size

	n := 15 + rng.Intn(20)
	comps := make([]domain.Comparable, 0, n)
	for i := 0; i < n; i++ {
		distance := rng.Float64() * 10
		sizeVariation := 0.5 + rng.Float64()

		distanceFactor := 1 - distance/50
		sizeFactor := 1 - math.Abs(1-sizeVariation)*0.2
		marketNoise := 0.8 + rng.Float64()*0.4

		price := basePrice * distanceFactor * sizeFactor * marketNoise
		compYield := baseYield * (0.85 + rng.Float64()*0.3)
		condition := 0.5 + rng.Float64()*0.5

		similarity := (1-distance/10)*0.3 +
			sizeFactor*0.3 +
			condition*0.2 +
			(1-math.Abs(compYield-baseYield)/baseYield)*0.2

		comps = append(comps, domain.Comparable{
			ID:              fmt.Sprintf("comp-%d", i+1),
			DistanceKM:      math.Round(distance*100) / 100,
			Size:            math.Round(size * sizeVariation),
			PricePerSqFt:    math.Round(price),
			Yield:           math.Round(compYield*100) / 100,
			Condition:       condition,
			TransactionDate: time.Now().UTC().AddDate(0, 0, -rng.Intn(365)),
			Similarity:      math.Min(1, math.Max(0, similarity)),
		})
	}
	sort.SliceStable(comps, func(i, j int) bool { return comps[i].Similarity > comps[j].Similarity })
	return comps
}

// conditionMultiplier prefers the oracle vision assessment over the claimed
// condition grade.
func conditionMultiplier(sub domain.Submission, oracle *domain.OracleResult) float64 {
	if oracle != nil {
		for _, sig := range oracle.Existence.Signals {
			if sig.Provider != "vision" || sig.Failed {
				continue
			}
			if v, ok := sig.Evidence.Raw["conditionScore"].(float64); ok {
				return v
			}
		}
	}
	return domain.ConditionScore(sub.Specifications.Condition)
}

func (s *Service) nav(sub domain.Submission, comps []domain.Comparable, oracle *domain.OracleResult, rng *rand.Rand) domain.NAV {
	size := sub.Specifications.Size

	top := comps
	if len(top) > 10 {
		top = top[:10]
	}

	var totalWeight, weightedPrice, totalSimilarity float64
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	prices := make([]float64, 0, len(top))
	for _, c := range top {
		weightedPrice += c.PricePerSqFt * c.Similarity
		totalWeight += c.Similarity
		totalSimilarity += c.Similarity
		prices = append(prices, c.PricePerSqFt)
		minPrice = math.Min(minPrice, c.PricePerSqFt)
		maxPrice = math.Max(maxPrice, c.PricePerSqFt)
	}
	avgPrice := weightedPrice / totalWeight
	adjustedPrice := avgPrice * (0.8 + conditionMultiplier(sub, oracle)*0.4)

	sort.Float64s(prices)
	medianPrice := prices[len(prices)/2]

	// Monte Carlo for the downside/upside band.
	std := (maxPrice - minPrice) / 4
	sims := make([]float64, s.runs)
	for i := range sims {
		sims[i] = size * (adjustedPrice + rng.NormFloat64()*std)
	}
	sort.Float64s(sims)

	mean := size * adjustedPrice
	claimedVsCalculated := 0.0
	if mean > 0 {
		claimedVsCalculated = sub.ClaimedValue / mean
	}

	avgSimilarity := totalSimilarity / float64(len(top))

	return domain.NAV{
		ComparablesUsed:      len(top),
		AvgPricePerSqFt:      math.Round(avgPrice),
		AdjustedPricePerSqFt: math.Round(adjustedPrice),
		Mean:                 math.Round(mean),
		Median:               math.Round(size * medianPrice),
		Min:                  math.Round(size * minPrice * 0.9),
		Max:                  math.Round(size * maxPrice * 1.05),
		Downside:             math.Round(sims[int(float64(s.runs)*0.05)]),
		Upside:               math.Round(sims[int(float64(s.runs)*0.95)]),
		ClaimedVsCalculated:  math.Round(claimedVsCalculated*100) / 100,
		Confidence:           math.Min(0.95, avgSimilarity*0.7+float64(len(top))/20*0.3),
	}
}

func (s *Service) yield(sub domain.Submission, comps []domain.Comparable, nav domain.NAV) domain.YieldAnalysis {
	top := comps
	if len(top) > 10 {
		top = top[:10]
	}

	yields := make([]float64, 0, len(top))
	for _, c := range top {
		yields = append(yields, c.Yield)
	}
	sort.Float64s(yields)
	marketMedian := yields[len(yields)/2]

	subject := sub.Financials.ExpectedYield
	spread := subject - marketMedian

	annualRent := sub.Financials.CurrentRent * 12
	netIncome := annualRent*(sub.Financials.OccupancyRate/100) - sub.Financials.AnnualExpenses
	impliedYield := 0.0
	if nav.Mean > 0 {
		impliedYield = netIncome / nav.Mean * 100
	}
	expected := (impliedYield + marketMedian) / 2

	// Yields far above market or above what the income implies are unlikely
	// to be sustainable.
	sustainability := 1 - math.Abs(spread)/marketMedian
	if subject > impliedYield*1.5 {
		sustainability *= 0.6
	}
	sustainability = math.Max(0, math.Min(1, sustainability))

	return domain.YieldAnalysis{
		MarketMedian:        math.Round(marketMedian*100) / 100,
		Subject:             subject,
		Spread:              math.Round(spread*100) / 100,
		Min:                 math.Round(yields[0]*0.9*100) / 100,
		Max:                 math.Round(yields[len(yields)-1]*1.1*100) / 100,
		Expected:            math.Round(expected*100) / 100,
		SustainabilityScore: sustainability,
		Confidence:          math.Min(0.9, sustainability*0.5+0.4),
	}
}

func (s *Service) cashFlows(sub domain.Submission, rng *rand.Rand) domain.CashFlowSimulation {
	baseRent := sub.Financials.CurrentRent * 12
	baseExpenses := sub.Financials.AnnualExpenses
	baseVacancy := vacancyBenchmark(sub.Specifications.Type)

	perYear := make([][]float64, s.years)
	for y := range perYear {
		perYear[y] = make([]float64, s.runs)
	}
	totals := make([]float64, s.runs)

	for run := 0; run < s.runs; run++ {
		rent := baseRent
		expenses := baseExpenses
		for y := 0; y < s.years; y++ {
			rent *= 1 + rentGrowthRate + rng.NormFloat64()*rentGrowthStd
			expenses *= 1 + inflationRate + rng.NormFloat64()*inflationStd

			vacancy := math.Max(0, math.Min(1, baseVacancy+rng.NormFloat64()*vacancyStd))
			netCF := rent*(1-vacancy) - expenses

			perYear[y][run] = netCF
			totals[run] += netCF
		}
	}

	mean := make([]float64, s.years)
	p5 := make([]float64, s.years)
	p95 := make([]float64, s.years)
	for y := 0; y < s.years; y++ {
		vals := perYear[y]
		sort.Float64s(vals)
		var sum float64
		for _, v := range vals {
			sum += v
		}
		mean[y] = math.Round(sum / float64(s.runs))
		p5[y] = math.Round(vals[int(float64(s.runs)*0.05)])
		p95[y] = math.Round(vals[int(float64(s.runs)*0.95)])
	}

	sort.Float64s(totals)
	var totalSum float64
	for _, v := range totals {
		totalSum += v
	}
	totalMean := totalSum / float64(s.runs)

	var variance float64
	for _, v := range totals {
		variance += (v - totalMean) * (v - totalMean)
	}
	std := math.Sqrt(variance / float64(s.runs))

	positive := sort.SearchFloat64s(totals, 0)
	probPositive := float64(s.runs-positive) / float64(s.runs)

	breakEven := 0
	var cumulative float64
	for y := 0; y < s.years; y++ {
		cumulative += mean[y]
		if cumulative > 0 {
			breakEven = y + 1
			break
		}
	}

	return domain.CashFlowSimulation{
		Runs:                s.runs,
		Years:               s.years,
		MeanAnnual:          mean,
		P5Annual:            p5,
		P95Annual:           p95,
		TotalMean:           math.Round(totalMean),
		TotalStd:            math.Round(std),
		TotalP5:             math.Round(totals[int(float64(s.runs)*0.05)]),
		TotalP95:            math.Round(totals[int(float64(s.runs)*0.95)]),
		ProbabilityPositive: probPositive,
		BreakEvenYear:       breakEven,
	}
}

func (s *Service) risks(sub domain.Submission, nav domain.NAV, rng *rand.Rand) domain.RiskSimulation {
	baseVacancy := vacancyBenchmark(sub.Specifications.Type)
	occupancy := sub.Financials.OccupancyRate / 100

	singleTenantPenalty := 0.0
	if sub.Financials.TenantCount == 1 {
		singleTenantPenalty = 20
	}
	vacancyRisk := math.Min(100, math.Max(0,
		(1-occupancy)*50+baseVacancy*100+singleTenantPenalty))

	navVolatility := 0.0
	if nav.Mean > 0 {
		navVolatility = (nav.Max - nav.Min) / nav.Mean * 100
	}
	marketVolatility := math.Min(100, navVolatility*2)

	durationYears := math.Min(float64(sub.Financials.LeaseTermMonths)/12, 10)
	rateSensitivity := durationYears * 0.8

	liquidity := 70.0
	if nav.Mean > 10000000 {
		liquidity -= 20
	}
	if t := sub.Specifications.Type; t == "industrial" || t == "agricultural" {
		liquidity -= 15
	}
	liquidity += (occupancy - 0.8) * 30
	liquidity = math.Max(10, math.Min(100, liquidity))

	daysToSell := int(math.Round(90 + (100-liquidity)*3))

	stressTests := []domain.StressTest{
		{
			Scenario:    "Severe Recession (-30% Market)",
			NAVImpact:   round1(-25 - rng.Float64()*10),
			CFImpact:    round1(-35 - rng.Float64()*15),
			Probability: 0.05,
		},
		{
			Scenario:    "Moderate Downturn (-15% Market)",
			NAVImpact:   round1(-12 - rng.Float64()*5),
			CFImpact:    round1(-18 - rng.Float64()*8),
			Probability: 0.15,
		},
		{
			Scenario:    "Interest Rate Shock (+300bps)",
			NAVImpact:   round1(-durationYears * 2.5),
			CFImpact:    round1(-5 - rng.Float64()*5),
			Probability: 0.10,
		},
		{
			Scenario:    "Major Tenant Default",
			NAVImpact:   round1(-10 - rng.Float64()*10),
			CFImpact:    round1(-40 - rng.Float64()*20),
			Probability: 0.08,
		},
		{
			Scenario:    "Hyperlocal Market Crash",
			NAVImpact:   round1(-35 - rng.Float64()*15),
			CFImpact:    round1(-25 - rng.Float64()*10),
			Probability: 0.03,
		},
	}

	var95 := nav.Mean - nav.Downside
	tailRisk := 0.0
	if nav.Mean > 0 {
		tailRisk = math.Min(1, var95/nav.Mean*2)
	}

	return domain.RiskSimulation{
		VacancyRiskScore:        math.Round(vacancyRisk),
		ExpectedVacancyRate:     round1(baseVacancy * 100),
		WorstCaseVacancy:        math.Min(50, math.Round(baseVacancy*300)),
		MarketVolatility:        math.Round(marketVolatility),
		InterestRateSensitivity: math.Round(rateSensitivity*100) / 100,
		DurationYears:           round1(durationYears),
		LiquidityScore:          math.Round(liquidity),
		EstimatedDaysToSell:     daysToSell,
		TailRiskScore:           math.Round(tailRisk*100) / 100,
		VaR95:                   math.Round(var95),
		VaR99:                   math.Round(var95 * 1.4),
		ExpectedShortfall:       math.Round(var95 * 1.25),
		StressTests:             stressTests,
	}
}

func (s *Service) marketFit(nav domain.NAV, yld domain.YieldAnalysis, rng *rand.Rand) float64 {
	ratio := nav.ClaimedVsCalculated

	var fit float64
	switch {
	case ratio > 1.3 || ratio < 0.7:
		fit = 50
	case ratio > 1.15 || ratio < 0.85:
		fit = 75
	default:
		fit = 90 + rng.Float64()*10
	}

	spreadAlignment := 0.0
	if yld.MarketMedian > 0 {
		spreadAlignment = 1 - math.Abs(yld.Spread)/yld.MarketMedian
	}
	return math.Round(fit*0.5 + spreadAlignment*50)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
