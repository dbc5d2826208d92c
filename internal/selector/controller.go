// Package selector binds navigation input to MIDI output: every change of
// the selected instrument is encoded and sent to the synthesizer.
package selector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/icco/sc8850/internal/catalogue"
	"github.com/icco/sc8850/internal/codec"
	"github.com/icco/sc8850/internal/navigation"
	"github.com/icco/sc8850/internal/transport"
)

// DefaultRepeat is how many times a selection is sent. The SC-8850 lags one
// selection behind when the pair is sent only once.
const DefaultRepeat = 2

// Diagnostic note timing.
const (
	NoteHold = 500 * time.Millisecond
	NoteRest = 100 * time.Millisecond

	DiagnosticNote     uint8 = 60
	DiagnosticVelocity uint8 = 80
)

// ErrInvalidPatch is returned by DirectSet for values outside the MIDI data range.
var ErrInvalidPatch = errors.New("invalid patch values")

// KindInvalidPatch tags DirectSet range errors.
const KindInvalidPatch ftag.Kind = "invalid_patch"

// Action is a navigation command.
type Action int

const (
	None Action = iota
	NextGroup
	PrevGroup
	NextInstrument
	PrevInstrument
)

func (a Action) String() string {
	switch a {
	case NextGroup:
		return "next-group"
	case PrevGroup:
		return "prev-group"
	case NextInstrument:
		return "next-instrument"
	case PrevInstrument:
		return "prev-instrument"
	}
	return "none"
}

// ActionForKey maps the w/a/s/d keys. Anything else is None.
func ActionForKey(key string) Action {
	switch key {
	case "d":
		return NextGroup
	case "a":
		return PrevGroup
	case "s":
		return NextInstrument
	case "w":
		return PrevInstrument
	}
	return None
}

// Controller owns the navigation cursor and the output it drives.
type Controller struct {
	cursor *navigation.Cursor
	out    transport.Sender
	repeat int
	log    logrus.FieldLogger
	sleep  func(context.Context, time.Duration) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithRepeat sets how often each selection is sent. Values below 1 are ignored.
func WithRepeat(n int) Option {
	return func(c *Controller) {
		if n >= 1 {
			c.repeat = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New returns a controller positioned on the cursor's current instrument.
// Nothing is sent until Start.
func New(cursor *navigation.Cursor, out transport.Sender, opts ...Option) *Controller {
	c := &Controller{
		cursor: cursor,
		out:    out,
		repeat: DefaultRepeat,
		log:    logrus.StandardLogger(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start sends the initial selection.
func (c *Controller) Start() error {
	return c.transmit()
}

// OnKey handles a single key press.
func (c *Controller) OnKey(key string) error {
	return c.Handle(ActionForKey(key))
}

// Handle applies one transition and sends the resulting selection.
// None changes nothing and sends nothing.
func (c *Controller) Handle(a Action) error {
	switch a {
	case NextGroup:
		c.cursor.NextGroup()
	case PrevGroup:
		c.cursor.PrevGroup()
	case NextInstrument:
		c.cursor.NextInstrument()
	case PrevInstrument:
		c.cursor.PrevInstrument()
	default:
		return nil
	}
	return c.transmit()
}

// Select jumps to an instrument by index and sends it.
func (c *Controller) Select(group, instrument int) error {
	c.cursor.Select(group, instrument)
	return c.transmit()
}

// Current is the selected instrument with its channel applied.
func (c *Controller) Current() *catalogue.Instrument {
	return c.cursor.Current()
}

// Cursor exposes the navigation state for rendering.
func (c *Controller) Cursor() *navigation.Cursor {
	return c.cursor
}

// PlayNote sounds the diagnostic note on the current instrument.
func (c *Controller) PlayNote(ctx context.Context) error {
	return playNote(ctx, c.out, c.cursor.Current(), DiagnosticNote, DiagnosticVelocity, c.sleep)
}

func (c *Controller) transmit() error {
	inst := c.cursor.Current()
	msgs, err := codec.Select(inst)
	if err != nil {
		return fault.Wrap(err, fmsg.With(fmt.Sprintf("encoding %s", inst.Name)))
	}

	c.log.WithFields(logrus.Fields{
		"group":   c.cursor.Group(),
		"name":    inst.Name,
		"cc":      inst.ControlChange,
		"pc":      inst.ProgramChange,
		"channel": inst.Channel,
	}).Info("instrument selected")

	for i := 0; i < c.repeat; i++ {
		if err := sendAll(c.out, msgs); err != nil {
			return err
		}
	}
	return nil
}

// DirectSet sends one bank select and program change on channel 0 without a
// catalogue. pc is interpreted according to base.
func DirectSet(out transport.Sender, cc, pc int, base catalogue.ProgramBase) (*catalogue.Instrument, error) {
	wire := base.Normalize(pc)
	if cc < 0 || cc > 127 || wire < 0 || wire > 127 {
		return nil, fault.Wrap(ErrInvalidPatch,
			ftag.With(KindInvalidPatch),
			fmsg.WithDesc(fmt.Sprintf("cc=%d pc=%d (%s-based)", cc, pc, base),
				fmt.Sprintf("cc must be 0-127 and pc must be in range for %s-based numbering", base)))
	}
	inst := &catalogue.Instrument{
		ControlChange: uint8(cc),   //nolint:gosec // range checked above
		ProgramChange: uint8(wire), //nolint:gosec // range checked above
	}
	msgs, err := codec.Select(inst)
	if err != nil {
		return nil, err
	}
	return inst, sendAll(out, msgs)
}

// PlayNote sounds note on inst: on, hold, off, rest.
func PlayNote(ctx context.Context, out transport.Sender, inst *catalogue.Instrument, note, velocity uint8) error {
	return playNote(ctx, out, inst, note, velocity, sleepContext)
}

func playNote(ctx context.Context, out transport.Sender, inst *catalogue.Instrument, note, velocity uint8, sleep func(context.Context, time.Duration) error) error {
	on, err := codec.NoteOn(inst, note, velocity)
	if err != nil {
		return err
	}
	off, err := codec.NoteOff(inst, note)
	if err != nil {
		return err
	}

	if err := out.Send(on); err != nil {
		return err
	}
	holdErr := sleep(ctx, NoteHold)
	// always release, even when cancelled
	if err := out.Send(off); err != nil {
		return err
	}
	if holdErr != nil {
		return holdErr
	}
	return sleep(ctx, NoteRest)
}

func sendAll(out transport.Sender, msgs []midi.Message) error {
	for _, m := range msgs {
		if err := out.Send(m); err != nil {
			return fault.Wrap(err, fmsg.With("sending selection"))
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
