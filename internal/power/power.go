// Package power implements the instance power draw model.
package power

import "github.com/carbonshift/simulator/internal/refdata"

// Watts returns the power draw of a single instance at the given CPU
// utilization percentage, by linear interpolation between the profile's
// idle and max watts:
//
//	watts = idle + (max - idle) × clamp(utilization, 0, 100) / 100
//
// Out-of-range utilization is clamped, not rejected. Pure and total over
// all real inputs.
func Watts(profile refdata.InstancePowerProfile, utilizationPct float64) float64 {
	u := Clamp(utilizationPct, 0, 100) / 100.0
	return profile.IdleWatts + (profile.MaxWatts-profile.IdleWatts)*u
}

// Clamp restricts a value to the range [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
