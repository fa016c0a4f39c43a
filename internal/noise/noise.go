// Package noise provides the pure value transforms used to anonymize raw
// sensor readings before they are stored or handed to observers.
package noise

import (
	"fmt"
	"math/rand"
)

// Policy names the anonymization parameters explicitly instead of burying
// them in constants: the light transform adds a fixed offset, the distance
// transform adds a perturbation drawn uniformly from [DistanceMin,
// DistanceMax). Policies are immutable and safe for concurrent use.
type Policy struct {
	LightOffset float64
	DistanceMin float64
	DistanceMax float64
}

// DefaultPolicy matches the platform's historical parameters.
func DefaultPolicy() Policy {
	return Policy{LightOffset: 10, DistanceMin: 10, DistanceMax: 25}
}

// NewPolicy validates the bounds; DistanceMin must be strictly below
// DistanceMax.
func NewPolicy(lightOffset, distanceMin, distanceMax float64) (Policy, error) {
	if distanceMin >= distanceMax {
		return Policy{}, fmt.Errorf("noise: distance bounds [%v, %v) are empty", distanceMin, distanceMax)
	}
	return Policy{LightOffset: lightOffset, DistanceMin: distanceMin, DistanceMax: distanceMax}, nil
}

// AnonymizeLight shifts a light reading by the fixed offset.
func (p Policy) AnonymizeLight(value float64) float64 {
	return value + p.LightOffset
}

// AnonymizeDistance perturbs a distance reading by a uniform random amount
// within the policy bounds. Only the bounds are reproducible, not the
// magnitude.
func (p Policy) AnonymizeDistance(value float64) float64 {
	return value + p.DistanceMin + rand.Float64()*(p.DistanceMax-p.DistanceMin)
}
