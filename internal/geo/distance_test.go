package geo

import (
	"math"
	"testing"
)

func TestHaversineKmZeroDistance(t *testing.T) {
	d := HaversineKm(10, 20, 10, 20)
	if d < 0 || d > 1e-9 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineKmOneDegreeLatitude(t *testing.T) {
	// One degree of latitude is roughly 111.2 km anywhere on Earth.
	d := HaversineKm(0, 0, 1, 0)
	if math.Abs(d-111.2) > 1 {
		t.Fatalf("one degree latitude expected ~111.2km, got %v", d)
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := HaversineKm(40.4168, -3.7038, 41.3874, 2.1686)
	b := HaversineKm(41.3874, 2.1686, 40.4168, -3.7038)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance should be symmetric: %v vs %v", a, b)
	}
}
