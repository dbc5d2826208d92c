package navigation

import (
	"testing"

	"github.com/icco/sc8850/internal/catalogue"
)

func testCatalogue(t *testing.T) *catalogue.Catalogue {
	t.Helper()
	c, err := catalogue.Load([]byte(`{
		"drums": [{"Standard": {"cc": 0, "pc": 1}}, {"Room": {"cc": 0, "pc": 9}}],
		"piano": [{"Grand": {"cc": 0, "pc": 1}}, {"Bright": {"cc": 0, "pc": 2}}, {"Piano 1w": {"cc": 8, "pc": 1}}],
		"bass":  [{"Finger": {"cc": 0, "pc": 34}}]
	}`))
	if err != nil {
		t.Fatalf("loading catalogue: %v", err)
	}
	return c
}

func TestInitialState(t *testing.T) {
	c := New(testCatalogue(t))
	if c.GroupIndex() != 0 || c.InstrumentIndex() != 0 {
		t.Errorf("initial cursor = (%d, %d), want (0, 0)", c.GroupIndex(), c.InstrumentIndex())
	}
	if c.Current().Name != "Standard" {
		t.Errorf("initial instrument = %q", c.Current().Name)
	}
}

func TestGroupWrap(t *testing.T) {
	c := New(testCatalogue(t))

	c.PrevGroup()
	if c.GroupIndex() != 2 || c.Group() != "bass" {
		t.Errorf("PrevGroup from 0 = %d (%s), want 2 (bass)", c.GroupIndex(), c.Group())
	}
	c.NextGroup()
	if c.GroupIndex() != 0 {
		t.Errorf("NextGroup from last = %d, want 0", c.GroupIndex())
	}
}

func TestGroupSequencesStayInRange(t *testing.T) {
	c := New(testCatalogue(t))
	moves := []func(){c.NextGroup, c.PrevGroup, c.PrevGroup, c.PrevGroup, c.NextGroup, c.NextGroup, c.NextGroup, c.NextGroup, c.PrevGroup}
	for i, move := range moves {
		move()
		if g := c.GroupIndex(); g < 0 || g >= 3 {
			t.Fatalf("step %d: group index %d out of range", i, g)
		}
		if c.InstrumentIndex() != 0 {
			t.Fatalf("step %d: group change left instrument index %d", i, c.InstrumentIndex())
		}
	}
}

func TestGroupInverse(t *testing.T) {
	c := New(testCatalogue(t))
	for start := 0; start < 3; start++ {
		c.Select(start, 0)
		c.NextGroup()
		c.PrevGroup()
		if c.GroupIndex() != start {
			t.Errorf("next/prev from %d ended at %d", start, c.GroupIndex())
		}
		c.PrevGroup()
		c.NextGroup()
		if c.GroupIndex() != start {
			t.Errorf("prev/next from %d ended at %d", start, c.GroupIndex())
		}
	}
}

func TestGroupChangeResetsInstrument(t *testing.T) {
	c := New(testCatalogue(t))
	c.NextGroup()
	c.NextInstrument()
	c.NextInstrument()
	if c.InstrumentIndex() != 2 {
		t.Fatalf("instrument index = %d, want 2", c.InstrumentIndex())
	}
	c.NextGroup()
	if c.InstrumentIndex() != 0 {
		t.Errorf("instrument index after NextGroup = %d, want 0", c.InstrumentIndex())
	}
}

func TestInstrumentFullCycle(t *testing.T) {
	c := New(testCatalogue(t))
	c.NextGroup() // piano, 3 instruments
	c.NextInstrument()

	start := c.InstrumentIndex()
	for i := 0; i < len(c.Instruments()); i++ {
		c.NextInstrument()
	}
	if c.InstrumentIndex() != start {
		t.Errorf("after full cycle index = %d, want %d", c.InstrumentIndex(), start)
	}
}

func TestInstrumentWrap(t *testing.T) {
	c := New(testCatalogue(t))
	c.NextGroup()
	c.PrevInstrument()
	if c.InstrumentIndex() != 2 || c.Current().Name != "Piano 1w" {
		t.Errorf("PrevInstrument from 0 = %d (%s)", c.InstrumentIndex(), c.Current().Name)
	}
	c.NextInstrument()
	if c.InstrumentIndex() != 0 {
		t.Errorf("NextInstrument from last = %d", c.InstrumentIndex())
	}

	// single instrument group
	c.NextGroup()
	c.NextInstrument()
	c.PrevInstrument()
	if c.InstrumentIndex() != 0 {
		t.Errorf("single instrument group index = %d", c.InstrumentIndex())
	}
}

func TestDrumChannel(t *testing.T) {
	c := New(testCatalogue(t))
	if c.Group() != "drums" {
		t.Fatalf("group = %q", c.Group())
	}
	if ch := c.Current().Channel; ch != 9 {
		t.Errorf("drums channel = %d, want 9", ch)
	}
	c.NextGroup()
	if ch := c.Current().Channel; ch != 0 {
		t.Errorf("piano channel = %d, want 0", ch)
	}
	c.PrevGroup()
	c.NextInstrument()
	if ch := c.Current().Channel; ch != 9 {
		t.Errorf("second drum kit channel = %d, want 9", ch)
	}
}

func TestSelectWraps(t *testing.T) {
	c := New(testCatalogue(t))
	c.Select(4, -1)
	if c.GroupIndex() != 1 || c.InstrumentIndex() != 2 {
		t.Errorf("Select(4, -1) = (%d, %d), want (1, 2)", c.GroupIndex(), c.InstrumentIndex())
	}
}
