// Package pricing resolves hourly and monthly EC2 On-Demand prices.
//
// The resolver contract is deliberately total: lookups never surface an
// error to callers. The static resolver prices unknown instance types at
// zero, and the API-backed resolver degrades to static pricing on any
// external failure.
package pricing

import (
	"context"
	"math"

	"github.com/rs/zerolog"
)

// Resolver provides price lookups for EC2 instances.
type Resolver interface {
	// HourlyPrice returns the On-Demand hourly rate in USD, rounded to
	// 4 decimal places. Unknown instance types price at 0.
	HourlyPrice(ctx context.Context, instanceType, regionCode string) float64

	// MonthlyCost returns hourly price × hours × count in USD, rounded
	// to 2 decimal places.
	MonthlyCost(ctx context.Context, instanceType, regionCode string, hoursPerMonth float64, instanceCount int) float64
}

// StaticResolver prices from the embedded base-price and multiplier tables.
type StaticResolver struct {
	logger zerolog.Logger
}

// NewStaticResolver returns a resolver backed only by the static tables.
func NewStaticResolver(logger zerolog.Logger) *StaticResolver {
	return &StaticResolver{logger: logger}
}

// HourlyPrice returns base price × regional multiplier, rounded to 4dp.
func (r *StaticResolver) HourlyPrice(_ context.Context, instanceType, regionCode string) float64 {
	base, ok := baseHourlyPricing[instanceType]
	if !ok {
		r.logger.Warn().
			Str("instance_type", instanceType).
			Msg("no static price for instance type")
		return 0
	}

	multiplier, ok := regionMultipliers[regionCode]
	if !ok {
		multiplier = DefaultRegionMultiplier
	}
	return round4(base * multiplier)
}

// MonthlyCost returns the monthly cost for the given instance fleet.
func (r *StaticResolver) MonthlyCost(ctx context.Context, instanceType, regionCode string, hoursPerMonth float64, instanceCount int) float64 {
	hourly := r.HourlyPrice(ctx, instanceType, regionCode)
	return round2(hourly * hoursPerMonth * float64(instanceCount))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
