package simulation

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonshift/simulator/internal/pricing"
	"github.com/carbonshift/simulator/internal/refdata"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := refdata.Load()
	require.NoError(t, err)
	return NewEngine(store, pricing.NewStaticResolver(zerolog.Nop()), zerolog.Nop())
}

func baseRequest() WorkloadRequest {
	return WorkloadRequest{
		CloudProvider:  "aws",
		InstanceType:   "t3.micro",
		InstanceCount:  1,
		CPUUtilization: 50,
		HoursPerMonth:  730,
		CurrentRegion:  "eu-central-1",
	}
}

func TestEngine_Simulate_UnknownInstanceType(t *testing.T) {
	e := newTestEngine(t)
	req := baseRequest()
	req.InstanceType = "z99.mega"

	_, err := e.Simulate(context.Background(), req)

	var unknownType *UnknownInstanceTypeError
	require.ErrorAs(t, err, &unknownType)
	assert.Equal(t, "z99.mega", unknownType.InstanceType)
}

func TestEngine_Simulate_UnknownRegion(t *testing.T) {
	e := newTestEngine(t)
	req := baseRequest()
	req.CurrentRegion = "mars-north-1"

	_, err := e.Simulate(context.Background(), req)

	var unknownRegion *UnknownRegionError
	require.ErrorAs(t, err, &unknownRegion)
	assert.Equal(t, "mars-north-1", unknownRegion.Region)
}

func TestEngine_Simulate_OneResultPerRegion(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Simulate(context.Background(), baseRequest())
	require.NoError(t, err)

	all := result.AllRegions()
	assert.Len(t, all, 18)

	currents, lowestCarbon, lowestCost := 0, 0, 0
	for _, r := range all {
		if r.IsCurrentRegion {
			currents++
		}
		if r.IsLowestCarbon {
			lowestCarbon++
		}
		if r.IsLowestCost {
			lowestCost++
		}
	}
	assert.Equal(t, 1, currents, "exactly one current region")
	assert.Equal(t, 1, lowestCarbon, "exactly one lowest-carbon region")
	assert.Equal(t, 1, lowestCost, "exactly one lowest-cost region")
}

func TestEngine_Simulate_EnergyFigures(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Simulate(context.Background(), baseRequest())
	require.NoError(t, err)

	// t3.micro at 50%: 3.5 + (18 − 3.5) × 0.5 = 10.75 W
	// 0.01075 kW × 730 h = 7.8475 kWh → 7.85 displayed
	assert.InDelta(t, 7.85, result.CurrentRegion.PowerConsumptionKWh, 1e-9)

	// Energy is region-invariant.
	for _, r := range result.ComparisonRegions {
		assert.Equal(t, result.CurrentRegion.PowerConsumptionKWh, r.PowerConsumptionKWh)
	}

	// eu-central-1 at 385 gCO2/kWh: 7.8475 × 385 / 1000 = 3.0213 → 3.02
	assert.InDelta(t, 3.02, result.CurrentRegion.CarbonEmissionsKg, 1e-9)

	// eu-central-1 cost: 0.0104 × 1.10 → 0.0114/h × 730 = 8.322 → 8.32
	assert.InDelta(t, 8.32, result.CurrentRegion.MonthlyCostUSD, 1e-9)
}

func TestEngine_Simulate_BestRegions(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Simulate(context.Background(), baseRequest())
	require.NoError(t, err)

	// Montreal has the lowest grid intensity in the catalogue (25).
	assert.Equal(t, "ca-central-1", result.BestCarbonRegion.RegionCode)
	assert.True(t, result.BestCarbonRegion.IsLowestCarbon)

	// Three regions share the 1.00 multiplier; us-east-1 is enumerated
	// first, so first-seen-wins makes it the lowest-cost region.
	assert.Equal(t, "us-east-1", result.BestCostRegion.RegionCode)
	assert.True(t, result.BestCostRegion.IsLowestCost)
}

func TestEngine_Simulate_SavingsFromRoundedFigures(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Simulate(context.Background(), baseRequest())
	require.NoError(t, err)

	current := result.CurrentRegion
	best := result.BestCarbonRegion

	// Displayed savings must equal the difference of displayed totals.
	assert.Equal(t, current.CarbonEmissionsKg-best.CarbonEmissionsKg, best.CarbonSavingsKg)
	assert.Equal(t, current.MonthlyCostUSD-best.MonthlyCostUSD, best.CostSavingsUSD)

	// ca-central-1: 7.8475 × 25 / 1000 = 0.1962 → 0.20; savings 3.02 − 0.20.
	assert.InDelta(t, 2.82, best.CarbonSavingsKg, 1e-9)
	assert.InDelta(t, 93.4, best.CarbonSavingsPercent, 1e-9) // 2.82/3.02 × 100 → 93.4
}

func TestEngine_Simulate_CurrentRegionSavingsAreZero(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Simulate(context.Background(), baseRequest())
	require.NoError(t, err)

	current := result.CurrentRegion
	assert.True(t, current.IsCurrentRegion)
	assert.Zero(t, current.CarbonSavingsKg)
	assert.Zero(t, current.CostSavingsUSD)
	assert.Zero(t, current.CarbonSavingsPercent)
	assert.Zero(t, current.CostSavingsPercent)
}

func TestEngine_Simulate_ZeroCarbonGuard(t *testing.T) {
	e := newTestEngine(t)

	// Idle t3.micro for one hour in Montreal rounds to 0.00 kg. The
	// percentage must stay 0 rather than dividing by zero.
	req := baseRequest()
	req.CPUUtilization = 0
	req.HoursPerMonth = 1
	req.CurrentRegion = "ca-central-1"

	result, err := e.Simulate(context.Background(), req)
	require.NoError(t, err)

	require.Zero(t, result.CurrentRegion.CarbonEmissionsKg)
	for _, r := range result.AllRegions() {
		assert.False(t, math.IsNaN(r.CarbonSavingsPercent))
		assert.Zero(t, r.CarbonSavingsPercent, "region %s", r.RegionCode)
	}
}

func TestEngine_Simulate_ComparisonRegionsSortedByCarbon(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Simulate(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Len(t, result.ComparisonRegions, 17)
	sorted := sort.SliceIsSorted(result.ComparisonRegions, func(a, b int) bool {
		return result.ComparisonRegions[a].CarbonEmissionsKg < result.ComparisonRegions[b].CarbonEmissionsKg
	})
	assert.True(t, sorted, "comparison regions must be sorted by carbon ascending")

	for _, r := range result.ComparisonRegions {
		assert.False(t, r.IsCurrentRegion, "current region must be excluded from comparisons")
	}
}

func TestEngine_Simulate_Equivalencies(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Simulate(context.Background(), baseRequest())
	require.NoError(t, err)

	// Yearly potential: (3.02 − 0.20) × 12 = 33.84 → 33.8
	assert.InDelta(t, 33.8, result.Equivalencies["yearly_savings_kg"], 1e-9)
	assert.InDelta(t, 135, result.Equivalencies["car_km_saved"], 1e-9)       // 33.84 × 4.0
	assert.InDelta(t, 28, result.Equivalencies["tree_months"], 1e-9)         // 33.84 × 0.83
	assert.InDelta(t, 4061, result.Equivalencies["smartphone_charges"], 1e-9) // 33.84 × 120
}

func TestEngine_Simulate_InstanceCountScales(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	single, err := e.Simulate(ctx, baseRequest())
	require.NoError(t, err)

	req := baseRequest()
	req.InstanceCount = 10
	fleet, err := e.Simulate(ctx, req)
	require.NoError(t, err)

	assert.InDelta(t, 78.48, fleet.CurrentRegion.PowerConsumptionKWh, 1e-9) // 7.8475 × 10
	assert.Greater(t, fleet.CurrentRegion.MonthlyCostUSD, single.CurrentRegion.MonthlyCostUSD)
}

func TestEngine_Simulate_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Simulate(ctx, baseRequest())
	require.NoError(t, err)
	second, err := e.Simulate(ctx, baseRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWorkloadRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkloadRequest)
		wantErr bool
	}{
		{"valid", func(*WorkloadRequest) {}, false},
		{"missing instance type", func(r *WorkloadRequest) { r.InstanceType = "" }, true},
		{"missing region", func(r *WorkloadRequest) { r.CurrentRegion = "" }, true},
		{"zero instances", func(r *WorkloadRequest) { r.InstanceCount = 0 }, true},
		{"too many instances", func(r *WorkloadRequest) { r.InstanceCount = 1001 }, true},
		{"negative utilization", func(r *WorkloadRequest) { r.CPUUtilization = -1 }, true},
		{"utilization over 100", func(r *WorkloadRequest) { r.CPUUtilization = 101 }, true},
		{"zero hours", func(r *WorkloadRequest) { r.HoursPerMonth = 0 }, true},
		{"hours over month", func(r *WorkloadRequest) { r.HoursPerMonth = 745 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
