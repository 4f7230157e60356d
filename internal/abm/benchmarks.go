package abm

// Market benchmarks used to synthesize comparables and drive the cash flow
// simulation. In production these come from a market data feed.

var avgPricePerSqFt = map[string]float64{
	"Bengaluru": 8500,
	"Chennai":   7200,
	"Mumbai":    15000,
	"Delhi":     12000,
	"Hyderabad": 6500,
	"Pune":      7000,
}

const defaultPricePerSqFt = 6000

var avgYield = map[string]float64{
	"residential":  3.5,
	"commercial":   7.5,
	"industrial":   9.0,
	"agricultural": 4.0,
}

const defaultYield = 5.0

var vacancyRate = map[string]float64{
	"residential":  0.05,
	"commercial":   0.12,
	"industrial":   0.08,
	"agricultural": 0.02,
}

const defaultVacancyRate = 0.08

const (
	rentGrowthRate = 0.05
	inflationRate  = 0.06

	rentGrowthStd = 0.03
	inflationStd  = 0.02
	vacancyStd    = 0.05
)

func priceBenchmark(city string) float64 {
	if p, ok := avgPricePerSqFt[city]; ok {
		return p
	}
	return defaultPricePerSqFt
}

func yieldBenchmark(assetType string) float64 {
	if y, ok := avgYield[assetType]; ok {
		return y
	}
	return defaultYield
}

func vacancyBenchmark(assetType string) float64 {
	if v, ok := vacancyRate[assetType]; ok {
		return v
	}
	return defaultVacancyRate
}
