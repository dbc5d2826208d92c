// Package navigation tracks the selected group and instrument in a catalogue.
package navigation

import (
	"github.com/icco/sc8850/internal/catalogue"
)

// Cursor is a (group, instrument) position over a catalogue. Both axes wrap.
// Changing the group always selects the group's first instrument.
type Cursor struct {
	cat        *catalogue.Catalogue
	group      int
	instrument int
}

// New returns a cursor at (0, 0).
func New(cat *catalogue.Catalogue) *Cursor {
	return &Cursor{cat: cat}
}

// NextGroup moves to the following group.
func (c *Cursor) NextGroup() {
	c.setGroup((c.group + 1) % c.cat.Len())
}

// PrevGroup moves to the preceding group.
func (c *Cursor) PrevGroup() {
	n := c.cat.Len()
	c.setGroup((c.group - 1 + n) % n)
}

// NextInstrument moves down within the current group.
func (c *Cursor) NextInstrument() {
	n := c.instrumentCount()
	c.instrument = (c.instrument + 1) % n
}

// PrevInstrument moves up within the current group.
func (c *Cursor) PrevInstrument() {
	n := c.instrumentCount()
	c.instrument = (c.instrument - 1 + n) % n
}

// Select jumps to a group and instrument by index. Out of range values are
// wrapped onto the axis.
func (c *Cursor) Select(group, instrument int) {
	c.setGroup(wrap(group, c.cat.Len()))
	c.instrument = wrap(instrument, c.instrumentCount())
}

// Current returns the selected instrument with its channel set for the
// current group: the drum channel in the drums group, channel 0 elsewhere.
func (c *Cursor) Current() *catalogue.Instrument {
	inst := c.cat.Group(c.group).Instruments[c.instrument]
	if c.Group() == catalogue.DrumGroup {
		inst.Channel = catalogue.DrumChannel
	} else {
		inst.Channel = 0
	}
	return inst
}

// Group is the name of the current group.
func (c *Cursor) Group() string {
	return c.cat.Group(c.group).Name
}

// Instruments of the current group, in catalogue order.
func (c *Cursor) Instruments() []*catalogue.Instrument {
	return c.cat.InstrumentsIn(c.Group())
}

// GroupIndex is the current position on the group axis.
func (c *Cursor) GroupIndex() int { return c.group }

// InstrumentIndex is the current position within the group.
func (c *Cursor) InstrumentIndex() int { return c.instrument }

// Catalogue the cursor walks.
func (c *Cursor) Catalogue() *catalogue.Catalogue { return c.cat }

func (c *Cursor) setGroup(i int) {
	c.group = i
	c.instrument = 0
}

func (c *Cursor) instrumentCount() int {
	return len(c.cat.Group(c.group).Instruments)
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
