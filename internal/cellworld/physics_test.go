package cellworld

import "testing"

// TestDamBreakReachesFarBank: a 6x6 world with a water column held back by
// a wall until the breach cell is cleared, after which water must reach
// the far bank.
func TestDamBreakReachesFarBank(t *testing.T) {
	w := New(6, 6)
	for y := 0; y <= 5; y++ {
		if err := w.AddMaterialAt(0, y, Water, 1.0); err != nil {
			t.Fatal(err)
		}
		if err := w.AddMaterialAt(1, y, Water, 1.0); err != nil {
			t.Fatal(err)
		}
		if err := w.AddMaterialAt(2, y, Wall, 1.0); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 30; i++ {
		w.Advance(0.016)
	}

	if err := w.AddMaterialAt(2, 5, Air, 0); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 170; i++ {
		w.Advance(0.016)
	}

	if w.Timestep() != 200 {
		t.Fatalf("expected timestep 200, got %d", w.Timestep())
	}

	got, ok := w.At(5, 5)
	if !ok {
		t.Fatal("expected (5,5) in range")
	}
	if got.Material != Water {
		t.Fatalf("expected WATER at (5,5) after breach, got %v", got.Material)
	}
	if got.FillRatio <= 0.1 {
		t.Fatalf("expected fill > 0.1 at (5,5), got %v", got.FillRatio)
	}
}

func TestCellMutationRoundTrip(t *testing.T) {
	w := New(8, 8)
	w.Advance(0.016)
	if err := w.AddMaterialAt(3, 3, Dirt, 0.75); err != nil {
		t.Fatal(err)
	}
	c, ok := w.At(3, 3)
	if !ok {
		t.Fatal("expected (3,3) in range")
	}
	if c.Material != Dirt {
		t.Fatalf("expected DIRT, got %v", c.Material)
	}
	const eps = 1e-9
	if c.FillRatio < 0.75-eps || c.FillRatio > 0.75+eps {
		t.Fatalf("expected fill ~0.75, got %v", c.FillRatio)
	}
}

func TestPressureAccumulatesDownColumn(t *testing.T) {
	w := New(1, 3)
	_ = w.AddMaterialAt(0, 0, Water, 1.0)
	_ = w.AddMaterialAt(0, 1, Water, 1.0)
	_ = w.AddMaterialAt(0, 2, Water, 1.0)
	w.computePressure()
	top, _ := w.At(0, 0)
	bottom, _ := w.At(0, 2)
	if bottom.Pressure <= top.Pressure {
		t.Fatalf("expected pressure to increase with depth: top=%v bottom=%v", top.Pressure, bottom.Pressure)
	}
}

func TestRigidMaterialsDoNotSelfMove(t *testing.T) {
	w := New(3, 3)
	_ = w.AddMaterialAt(1, 0, Wood, 1.0)
	for i := 0; i < 10; i++ {
		w.Advance(0.016)
	}
	c, _ := w.At(1, 0)
	if c.Material != Wood || c.FillRatio != 1.0 {
		t.Fatalf("expected wood to remain in place, got %+v", c)
	}
}
