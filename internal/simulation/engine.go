package simulation

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/carbonshift/simulator/internal/power"
	"github.com/carbonshift/simulator/internal/pricing"
	"github.com/carbonshift/simulator/internal/refdata"
)

// CO2 equivalency conversion constants, per kg of yearly carbon savings.
const (
	carKmPerKg             = 4.0  // ~4 km driving in an average car
	treeMonthsPerKg        = 0.83 // one tree absorbs ~1 kg in ~1 month
	smartphoneChargesPerKg = 120  // ~120 smartphone charges
)

// Engine runs carbon/cost simulations against the reference data. It is
// stateless and safe for concurrent use.
type Engine struct {
	store   *refdata.Store
	pricing pricing.Resolver
	logger  zerolog.Logger
}

// NewEngine returns a simulation engine using the given reference data and
// pricing resolver.
func NewEngine(store *refdata.Store, resolver pricing.Resolver, logger zerolog.Logger) *Engine {
	return &Engine{
		store:   store,
		pricing: resolver,
		logger:  logger,
	}
}

// Simulate computes carbon emissions and cost for the workload in every
// catalogued region, savings relative to the current region, and the
// lowest-carbon / lowest-cost regions.
//
// The only failure modes are the two reference-data lookups; both are
// checked before any computation. All numeric paths are total.
func (e *Engine) Simulate(ctx context.Context, req WorkloadRequest) (*Result, error) {
	start := time.Now()

	profile, ok := e.store.InstanceProfile(req.InstanceType)
	if !ok {
		return nil, &UnknownInstanceTypeError{InstanceType: req.InstanceType}
	}
	if _, ok := e.store.RegionCarbon(req.CurrentRegion); !ok {
		return nil, &UnknownRegionError{Region: req.CurrentRegion}
	}

	// Energy draw is a property of the workload, not of where it runs:
	// compute it once and apply per-region carbon intensity afterward.
	powerKW := power.Watts(profile, req.CPUUtilization) / 1000.0
	totalKWh := powerKW * req.HoursPerMonth * float64(req.InstanceCount)

	regions := e.store.Regions()
	all := make([]RegionResult, 0, len(regions))
	currentIdx, bestCarbonIdx, bestCostIdx := -1, 0, 0

	for i, region := range regions {
		carbonKg := totalKWh * region.CarbonIntensityGCO2KWh / 1000.0
		monthlyCost := e.pricing.MonthlyCost(ctx, req.InstanceType, region.RegionCode, req.HoursPerMonth, req.InstanceCount)

		all = append(all, RegionResult{
			RegionCode:             region.RegionCode,
			RegionName:             region.RegionName,
			Country:                region.Country,
			CarbonIntensityGCO2KWh: region.CarbonIntensityGCO2KWh,
			PowerConsumptionKWh:    round2(totalKWh),
			CarbonEmissionsKg:      round2(carbonKg),
			MonthlyCostUSD:         monthlyCost,
			IsCurrentRegion:        region.RegionCode == req.CurrentRegion,
		})

		if all[i].IsCurrentRegion {
			currentIdx = i
		}
		// Strict less-than keeps the first-seen region on ties.
		if all[i].CarbonEmissionsKg < all[bestCarbonIdx].CarbonEmissionsKg {
			bestCarbonIdx = i
		}
		if all[i].MonthlyCostUSD < all[bestCostIdx].MonthlyCostUSD {
			bestCostIdx = i
		}
	}

	current := all[currentIdx]
	for i := range all {
		all[i].IsLowestCarbon = i == bestCarbonIdx
		all[i].IsLowestCost = i == bestCostIdx

		// Savings are differences of the already-rounded headline figures,
		// so displayed savings match displayed totals exactly.
		all[i].CarbonSavingsKg = round2(current.CarbonEmissionsKg - all[i].CarbonEmissionsKg)
		all[i].CostSavingsUSD = round2(current.MonthlyCostUSD - all[i].MonthlyCostUSD)

		if current.CarbonEmissionsKg > 0 {
			all[i].CarbonSavingsPercent = round1(all[i].CarbonSavingsKg / current.CarbonEmissionsKg * 100)
		}
		if current.MonthlyCostUSD > 0 {
			all[i].CostSavingsPercent = round1(all[i].CostSavingsUSD / current.MonthlyCostUSD * 100)
		}
	}
	current = all[currentIdx]

	comparisons := make([]RegionResult, 0, len(all)-1)
	for i := range all {
		if i != currentIdx {
			comparisons = append(comparisons, all[i])
		}
	}
	sort.SliceStable(comparisons, func(a, b int) bool {
		return comparisons[a].CarbonEmissionsKg < comparisons[b].CarbonEmissionsKg
	})

	yearlySavingsKg := (current.CarbonEmissionsKg - all[bestCarbonIdx].CarbonEmissionsKg) * 12

	result := &Result{
		Request:           req,
		CurrentRegion:     current,
		ComparisonRegions: comparisons,
		BestCarbonRegion:  all[bestCarbonIdx],
		BestCostRegion:    all[bestCostIdx],
		Equivalencies: map[string]float64{
			"yearly_savings_kg":  round1(yearlySavingsKg),
			"car_km_saved":       math.Round(yearlySavingsKg * carKmPerKg),
			"tree_months":        math.Round(yearlySavingsKg * treeMonthsPerKg),
			"smartphone_charges": math.Round(yearlySavingsKg * smartphoneChargesPerKg),
		},
	}

	e.logger.Debug().
		Str("instance_type", req.InstanceType).
		Str("current_region", req.CurrentRegion).
		Int("regions", len(all)).
		Float64("total_kwh", round2(totalKWh)).
		Dur("elapsed", time.Since(start)).
		Msg("simulation complete")

	return result, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
