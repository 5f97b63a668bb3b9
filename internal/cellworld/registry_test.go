package cellworld

import "testing"

func TestDefaultRegistryHasAllBuiltins(t *testing.T) {
	r := NewDefaultRegistry()
	want := []string{
		"empty", "sandbox", "dam_break", "falling_dirt",
		"water_equalization", "raining", "tree_germination",
	}
	for _, id := range want {
		if _, ok := r.Metadata(id); !ok {
			t.Fatalf("expected builtin scenario %q to be registered", id)
		}
		gen, err := r.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		if gen == nil {
			t.Fatalf("Get(%q) returned nil generator", id)
		}
	}
}

func TestRegistryGetUnknownScenario(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestRegistryListIsSorted(t *testing.T) {
	r := NewDefaultRegistry()
	list := r.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID > list[i].ID {
			t.Fatalf("expected sorted list, got %v before %v", list[i-1].ID, list[i].ID)
		}
	}
}

func TestRegistryGetReturnsFreshInstances(t *testing.T) {
	r := NewDefaultRegistry()
	a, _ := r.Get("dam_break")
	b, _ := r.Get("dam_break")
	if a == b {
		t.Fatal("expected distinct generator instances per Get call")
	}
}

func TestDamBreakScenarioBreachesAtTimestep30(t *testing.T) {
	r := NewDefaultRegistry()
	gen, err := r.Get("dam_break")
	if err != nil {
		t.Fatal(err)
	}
	w := New(6, 6)
	w.SetScenario("dam_break", nil, gen)
	w.Setup()

	wallCell, _ := w.At(2, 5)
	if wallCell.Material != Wall {
		t.Fatalf("expected wall at (2,5) before breach, got %v", wallCell.Material)
	}

	for i := uint64(0); i < 30; i++ {
		w.Advance(0.016)
	}
	stillWall, _ := w.At(2, 5)
	if stillWall.Material != Wall {
		t.Fatal("expected wall intact before timestep 30")
	}

	w.Advance(0.016) // timestep 30: breach fires
	afterBreach, _ := w.At(2, 5)
	if afterBreach.IsWall() {
		t.Fatal("expected breach cell cleared at timestep 30")
	}
}
