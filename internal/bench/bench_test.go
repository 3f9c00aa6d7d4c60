package bench

import (
	"math"
	"testing"
)

func TestNewUnknownObjective(t *testing.T) {
	if _, err := New("nope", 0); err == nil {
		t.Fatal("Expected error for unknown objective")
	}
}

func TestNewDefaultDimensions(t *testing.T) {
	cases := map[string]int{
		"sphere":     3,
		"rastrigin":  3,
		"rosenbrock": 4,
		"beale":      2,
		"branin":     2,
		"eggholder":  2,
	}
	for name, dim := range cases {
		p, err := New(name, 0)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if p.Dim() != dim {
			t.Errorf("%s: expected default dimension %d, got %d", name, dim, p.Dim())
		}
		if len(p.LB()) != len(p.UB()) {
			t.Errorf("%s: bound lengths differ", name)
		}
	}
}

func TestNewFixedDimensionRejected(t *testing.T) {
	if _, err := New("beale", 5); err == nil {
		t.Fatal("Expected error for wrong dimension on a fixed-dimension problem")
	}
}

func TestNewGenericDimension(t *testing.T) {
	p, err := New("sphere", 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Dim() != 10 {
		t.Fatalf("Expected 10 dimensions, got %d", p.Dim())
	}
}

func TestKnownMinima(t *testing.T) {
	cases := []struct {
		name string
		at   []float64
		want float64
	}{
		{"sphere", []float64{0, 0, 0}, 0},
		{"rastrigin", []float64{0, 0, 0}, 0},
		{"rosenbrock", []float64{1, 1, 1, 1}, 0},
		{"beale", []float64{3, 0.5}, 0},
	}
	for _, tc := range cases {
		p, err := New(tc.name, 0)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", tc.name, err)
		}
		if got := p.Fitness(0, tc.at); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s at %v: expected %g, got %g", tc.name, tc.at, tc.want, got)
		}
	}
}

func TestEggholderKnownValue(t *testing.T) {
	p, err := New("eggholder", 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// Global minimum is approximately -959.6407 at (512, 404.2319).
	got := p.Fitness(0, []float64{512, 404.2319})
	if math.Abs(got-(-959.6407)) > 0.01 {
		t.Errorf("Eggholder minimum: expected about -959.6407, got %g", got)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != 6 {
		t.Fatalf("Expected 6 objectives, got %d: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Fatalf("Names not sorted: %v", names)
		}
	}
}
