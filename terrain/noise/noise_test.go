package noise

import "testing"

func TestSampleHeightDeterministic(t *testing.T) {
	g := NewGenerator(42)
	a := g.SampleHeight(10, 20)
	b := g.SampleHeight(10, 20)
	if a != b {
		t.Fatalf("expected deterministic output, got %v then %v", a, b)
	}
}

func TestSampleHeightDiffersBySeed(t *testing.T) {
	g1 := NewGenerator(1)
	g2 := NewGenerator(2)
	if g1.SampleHeight(5, 5) == g2.SampleHeight(5, 5) {
		t.Fatalf("expected different seeds to produce different heights")
	}
}

func TestSampleHeightVariesAcrossSpace(t *testing.T) {
	g := NewGenerator(7)
	a := g.SampleHeight(0, 0)
	b := g.SampleHeight(1000, 1000)
	if a == b {
		t.Fatalf("expected height to vary across distant positions")
	}
}
