package noise

import "testing"

func TestAnonymizeLightAddsFixedOffset(t *testing.T) {
	p := DefaultPolicy()

	for _, v := range []float64{0, -3.5, 42, 1000.25} {
		if got := p.AnonymizeLight(v); got != v+10 {
			t.Fatalf("AnonymizeLight(%v) = %v, want %v", v, got, v+10)
		}
	}
}

func TestAnonymizeDistanceStaysWithinBounds(t *testing.T) {
	p, err := NewPolicy(10, 10, 25)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}

	const value = 7.5
	for i := 0; i < 10_000; i++ {
		delta := p.AnonymizeDistance(value) - value
		if delta < p.DistanceMin || delta >= p.DistanceMax {
			t.Fatalf("perturbation %v outside [%v, %v)", delta, p.DistanceMin, p.DistanceMax)
		}
	}
}

func TestNewPolicyRejectsEmptyBounds(t *testing.T) {
	if _, err := NewPolicy(10, 25, 10); err == nil {
		t.Fatalf("expected error for inverted bounds")
	}
	if _, err := NewPolicy(10, 25, 25); err == nil {
		t.Fatalf("expected error for zero-width bounds")
	}
}
