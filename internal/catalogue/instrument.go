package catalogue

import (
	"fmt"
	"strings"
)

const (
	// DrumGroup is the reserved group whose instruments play on the percussion channel.
	DrumGroup = "drums"

	// DrumChannel is MIDI channel 10, zero-based.
	DrumChannel uint8 = 9

	maxDataByte = 127
)

// ProgramBase is the indexing convention of program numbers in catalogue
// files and on the command line. Values on the wire are always zero-based.
type ProgramBase int

const (
	// OneBased sources are decremented by one (1..128 -> 0..127).
	OneBased ProgramBase = iota
	// ZeroBased sources are sent as they are.
	ZeroBased
)

// ParseProgramBase accepts "one", "1", "zero" or "0".
func ParseProgramBase(s string) (ProgramBase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "one", "1":
		return OneBased, nil
	case "zero", "0":
		return ZeroBased, nil
	}
	return OneBased, fmt.Errorf("unknown program base %q (want one or zero)", s)
}

func (b ProgramBase) String() string {
	if b == ZeroBased {
		return "zero"
	}
	return "one"
}

// Normalize converts a source program number into its wire value.
func (b ProgramBase) Normalize(pc int) int {
	if b == OneBased {
		return pc - 1
	}
	return pc
}

// Instrument is a single patch of the synthesizer.
type Instrument struct {
	Name          string
	ControlChange uint8 // bank select value
	ProgramChange uint8 // zero-based
	Channel       uint8
}

// NewInstrument validates raw catalogue values and builds an instrument on
// channel 0. pc is interpreted according to base.
func NewInstrument(name string, cc, pc int, base ProgramBase) (*Instrument, error) {
	if cc < 0 || cc > maxDataByte {
		return nil, malformed("instrument %q: cc %d out of range [0,127]", name, cc)
	}
	wire := base.Normalize(pc)
	if wire < 0 || wire > maxDataByte {
		return nil, malformed("instrument %q: pc %d out of range for %s-based numbering", name, pc, base)
	}
	return &Instrument{
		Name:          name,
		ControlChange: uint8(cc),   //nolint:gosec // range checked above
		ProgramChange: uint8(wire), //nolint:gosec // range checked above
	}, nil
}

func (i *Instrument) String() string {
	return fmt.Sprintf("%s cc=%d pc=%d", i.Name, i.ControlChange, i.ProgramChange)
}
