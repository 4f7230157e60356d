package fraud

import "assetgate/internal/domain"

// Accessors for raw evidence values attached by signal providers. A missing
// provider or key yields the zero value, which every rule treats as
// "insufficient evidence, do not trigger".

func findSignal(c domain.CompositeScore, provider string) (domain.Signal, bool) {
	for _, sig := range c.Signals {
		if sig.Provider == provider && !sig.Failed {
			return sig, true
		}
	}
	return domain.Signal{}, false
}

func rawFloat(c domain.CompositeScore, provider, key string) float64 {
	sig, ok := findSignal(c, provider)
	if !ok {
		return 0
	}
	switch v := sig.Evidence.Raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func rawBool(c domain.CompositeScore, provider, key string) bool {
	sig, ok := findSignal(c, provider)
	if !ok {
		return false
	}
	v, _ := sig.Evidence.Raw[key].(bool)
	return v
}

func rawInt(c domain.CompositeScore, provider, key string) int {
	sig, ok := findSignal(c, provider)
	if !ok {
		return 0
	}
	switch v := sig.Evidence.Raw[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
