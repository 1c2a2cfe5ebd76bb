package systems

import "testing"

func TestCellCatalog(t *testing.T) {
	c, err := NewCellCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != int(NumCellTypes) {
		t.Fatalf("catalog size = %d, want %d", c.Len(), NumCellTypes)
	}

	// The catalog index and the enum agree.
	for i := 0; i < c.Len(); i++ {
		info := c.Info(CellType(i))
		if info.Type != CellType(i) {
			t.Errorf("entry %d carries type %d", i, info.Type)
		}
		if info.Name != CellType(i).String() {
			t.Errorf("entry %d name %q != enum name %q", i, info.Name, CellType(i).String())
		}
	}

	if got, ok := c.ByName("Hemolymph"); !ok || got != CellHemolymph {
		t.Errorf("ByName(Hemolymph) = %v, %v", got, ok)
	}
	if _, ok := c.ByName("Plasma"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestResolveNames(t *testing.T) {
	c, _ := NewCellCatalog()

	types, err := c.ResolveNames([]string{"Stem", "Appendage"})
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 || types[0] != CellStem || types[1] != CellAppendage {
		t.Errorf("resolved %v", types)
	}

	if _, err := c.ResolveNames([]string{"Stem", "Ectoplasm"}); err == nil {
		t.Error("dangling name must be an error")
	}
}

func TestDescriptorsScaling(t *testing.T) {
	c, _ := NewCellCatalog()

	base := c.Descriptors(1.0)
	doubled := c.Descriptors(2.0)
	if len(base) != c.Len() || len(doubled) != c.Len() {
		t.Fatal("descriptor list length mismatch")
	}
	for i := range base {
		if doubled[i].SpawnTarget != base[i].SpawnTarget*2 {
			t.Errorf("type %d: scaled target %d, want %d", i, doubled[i].SpawnTarget, base[i].SpawnTarget*2)
		}
		if base[i].Radius != c.Info(CellType(i)).Radius {
			t.Errorf("type %d: radius not carried over", i)
		}
	}

	// Non-positive scale falls back to 1.
	fallback := c.Descriptors(0)
	for i := range base {
		if fallback[i].SpawnTarget != base[i].SpawnTarget {
			t.Errorf("type %d: zero scale should behave like 1", i)
		}
	}
}
