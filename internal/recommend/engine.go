// Package recommend selects a migration target region from a simulation
// result using a priority-weighted multi-criteria score.
//
// Each axis (carbon, price, latency, compliance) is normalized to [0, 1]
// with 0 = best, scaled by its weight, and summed; the region with the
// minimum score wins. Ties break in reference-data enumeration order,
// first seen wins, so the result is deterministic for identical input.
package recommend

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/carbonshift/simulator/internal/refdata"
	"github.com/carbonshift/simulator/internal/simulation"
)

// Default priority weights. Carbon dominates; the rest are advisory.
const (
	DefaultCarbonWeight     = 1.0
	DefaultPriceWeight      = 0.6
	DefaultLatencyWeight    = 0.3
	DefaultComplianceWeight = 0.2
)

// neutralLatencyScore applies to every region when no location is supplied:
// no information means neutral, not penalized.
const neutralLatencyScore = 0.5

// Weights are the resolved per-axis score multipliers.
type Weights struct {
	Carbon     float64
	Price      float64
	Latency    float64
	Compliance float64
}

// DefaultWeights returns the default priority weights.
func DefaultWeights() Weights {
	return Weights{
		Carbon:     DefaultCarbonWeight,
		Price:      DefaultPriceWeight,
		Latency:    DefaultLatencyWeight,
		Compliance: DefaultComplianceWeight,
	}
}

// ResolveWeights merges explicit overrides over the defaults, key by key.
func ResolveWeights(overrides *simulation.PriorityOverrides) Weights {
	w := DefaultWeights()
	if overrides == nil {
		return w
	}
	if overrides.Carbon != nil {
		w.Carbon = *overrides.Carbon
	}
	if overrides.Price != nil {
		w.Price = *overrides.Price
	}
	if overrides.Latency != nil {
		w.Latency = *overrides.Latency
	}
	if overrides.Compliance != nil {
		w.Compliance = *overrides.Compliance
	}
	return w
}

// Engine scores regions from a simulation result. Stateless and safe for
// concurrent use.
type Engine struct {
	store  *refdata.Store
	rules  []locationRule
	logger zerolog.Logger
}

// NewEngine returns a recommendation engine. It fails only if the embedded
// location rule table cannot be parsed.
func NewEngine(store *refdata.Store, logger zerolog.Logger) (*Engine, error) {
	rules, err := parseLocationRules()
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:  store,
		rules:  rules,
		logger: logger,
	}, nil
}

// Recommend returns the region code with the minimum weighted score for the
// given simulation result, optional free-text user location, and optional
// priority overrides.
func (e *Engine) Recommend(result *simulation.Result, userLocation string, overrides *simulation.PriorityOverrides) string {
	weights := ResolveWeights(overrides)

	location := strings.ToLower(strings.TrimSpace(userLocation))
	hasLocation := location != ""
	userInEU := hasLocation && isEULocation(location)

	byCode := make(map[string]simulation.RegionResult, len(result.ComparisonRegions)+1)
	for _, r := range result.AllRegions() {
		byCode[r.RegionCode] = r
	}

	nearby := nearbyRegions(location, e.store.Regions(), e.rules)

	minCarbon, maxCarbon, minCost, maxCost := scoreBounds(byCode)

	bestCode := ""
	bestScore := 0.0
	// Iterate in reference-data enumeration order so ties break
	// first-seen-wins, same as the simulation engine's argmin.
	for _, region := range e.store.Regions() {
		r, ok := byCode[region.RegionCode]
		if !ok {
			continue
		}

		carbonScore := minMaxScore(r.CarbonEmissionsKg, minCarbon, maxCarbon)
		costScore := minMaxScore(r.MonthlyCostUSD, minCost, maxCost)

		latencyScore := neutralLatencyScore
		if hasLocation {
			latencyScore = 1.0
			if _, near := nearby[r.RegionCode]; near {
				latencyScore = 0.0
			}
		}

		complianceScore := 0.0
		if userInEU && !isEURegion(r.RegionCode) {
			complianceScore = 1.0
		}

		score := carbonScore*weights.Carbon +
			costScore*weights.Price +
			latencyScore*weights.Latency +
			complianceScore*weights.Compliance

		if bestCode == "" || score < bestScore {
			bestCode = r.RegionCode
			bestScore = score
		}
	}

	e.logger.Debug().
		Str("recommended_region", bestCode).
		Float64("score", bestScore).
		Str("user_location", location).
		Bool("user_in_eu", userInEU).
		Int("nearby_regions", len(nearby)).
		Msg("recommendation computed")

	return bestCode
}

func scoreBounds(byCode map[string]simulation.RegionResult) (minCarbon, maxCarbon, minCost, maxCost float64) {
	first := true
	for _, r := range byCode {
		if first {
			minCarbon, maxCarbon = r.CarbonEmissionsKg, r.CarbonEmissionsKg
			minCost, maxCost = r.MonthlyCostUSD, r.MonthlyCostUSD
			first = false
			continue
		}
		if r.CarbonEmissionsKg < minCarbon {
			minCarbon = r.CarbonEmissionsKg
		}
		if r.CarbonEmissionsKg > maxCarbon {
			maxCarbon = r.CarbonEmissionsKg
		}
		if r.MonthlyCostUSD < minCost {
			minCost = r.MonthlyCostUSD
		}
		if r.MonthlyCostUSD > maxCost {
			maxCost = r.MonthlyCostUSD
		}
	}
	return minCarbon, maxCarbon, minCost, maxCost
}

// minMaxScore normalizes v into [0, 1] over [min, max]; 0 when all values
// tie.
func minMaxScore(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (v - min) / (max - min)
}
