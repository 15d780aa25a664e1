// Package simulation implements the carbon/cost simulation engine.
//
// A single WorkloadRequest produces one RegionResult per catalogued region
// plus derived savings and equivalencies. All computation is deterministic:
// identical input against unchanged reference data yields identical output.
package simulation

import "fmt"

// Request bounds enforced by Validate.
const (
	MinInstanceCount = 1
	MaxInstanceCount = 1000
	MinHoursPerMonth = 1
	MaxHoursPerMonth = 744
)

// PriorityOverrides carries optional per-axis weight overrides for region
// recommendation. Nil fields keep their defaults; set fields are merged
// key-by-key. Values are expected in [0, 1] but are not required to sum
// to anything.
type PriorityOverrides struct {
	Carbon     *float64 `json:"carbon,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	Latency    *float64 `json:"latency,omitempty"`
	Compliance *float64 `json:"compliance,omitempty"`
}

// WorkloadRequest describes the workload being simulated. Immutable once
// constructed.
type WorkloadRequest struct {
	CloudProvider  string             `json:"cloud_provider"`
	InstanceType   string             `json:"instance_type"`
	InstanceCount  int                `json:"instance_count"`
	CPUUtilization float64            `json:"cpu_utilization"`
	HoursPerMonth  float64            `json:"hours_per_month"`
	CurrentRegion  string             `json:"current_region"`
	UserLocation   string             `json:"user_location,omitempty"`
	Priorities     *PriorityOverrides `json:"priorities,omitempty"`
}

// Validate checks field bounds. Instance type and region existence are
// checked by Simulate against the reference data, not here.
func (r WorkloadRequest) Validate() error {
	if r.InstanceType == "" {
		return fmt.Errorf("instance_type is required")
	}
	if r.CurrentRegion == "" {
		return fmt.Errorf("current_region is required")
	}
	if r.InstanceCount < MinInstanceCount || r.InstanceCount > MaxInstanceCount {
		return fmt.Errorf("instance_count must be between %d and %d, got %d",
			MinInstanceCount, MaxInstanceCount, r.InstanceCount)
	}
	if r.CPUUtilization < 0 || r.CPUUtilization > 100 {
		return fmt.Errorf("cpu_utilization must be between 0 and 100, got %g", r.CPUUtilization)
	}
	if r.HoursPerMonth < MinHoursPerMonth || r.HoursPerMonth > MaxHoursPerMonth {
		return fmt.Errorf("hours_per_month must be between %d and %d, got %g",
			MinHoursPerMonth, MaxHoursPerMonth, r.HoursPerMonth)
	}
	return nil
}

// UnknownInstanceTypeError reports an instance type missing from the
// reference data.
type UnknownInstanceTypeError struct {
	InstanceType string
}

func (e *UnknownInstanceTypeError) Error() string {
	return fmt.Sprintf("unknown instance type: %s", e.InstanceType)
}

// UnknownRegionError reports a region code missing from the reference data.
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("unknown region: %s", e.Region)
}

// RegionResult holds the computed carbon and cost figures for one region.
// Headline figures are rounded for presentation; savings are differences of
// the rounded figures so displayed savings always equal the difference of
// displayed totals.
type RegionResult struct {
	RegionCode             string  `json:"region_code"`
	RegionName             string  `json:"region_name"`
	Country                string  `json:"country"`
	CarbonIntensityGCO2KWh float64 `json:"carbon_intensity_gco2_kwh"`
	PowerConsumptionKWh    float64 `json:"power_consumption_kwh"`
	CarbonEmissionsKg      float64 `json:"carbon_emissions_kg"`
	MonthlyCostUSD         float64 `json:"monthly_cost_usd"`
	IsCurrentRegion        bool    `json:"is_current_region"`
	IsLowestCarbon         bool    `json:"is_lowest_carbon"`
	IsLowestCost           bool    `json:"is_lowest_cost"`
	CarbonSavingsKg        float64 `json:"carbon_savings_kg"`
	CostSavingsUSD         float64 `json:"cost_savings_usd"`
	CarbonSavingsPercent   float64 `json:"carbon_savings_percent"`
	CostSavingsPercent     float64 `json:"cost_savings_percent"`
}

// Result is the aggregate output of one simulation run. Read-only after
// construction.
type Result struct {
	Request           WorkloadRequest    `json:"request"`
	CurrentRegion     RegionResult       `json:"current_region_result"`
	ComparisonRegions []RegionResult     `json:"comparison_regions"`
	BestCarbonRegion  RegionResult       `json:"best_carbon_region"`
	BestCostRegion    RegionResult       `json:"best_cost_region"`
	Equivalencies     map[string]float64 `json:"equivalencies"`
}

// AllRegions returns every region result (current + comparisons) without a
// guaranteed order.
func (r *Result) AllRegions() []RegionResult {
	all := make([]RegionResult, 0, len(r.ComparisonRegions)+1)
	all = append(all, r.CurrentRegion)
	all = append(all, r.ComparisonRegions...)
	return all
}
