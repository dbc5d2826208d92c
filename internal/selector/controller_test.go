package selector

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/icco/sc8850/internal/catalogue"
	"github.com/icco/sc8850/internal/navigation"
	"github.com/icco/sc8850/internal/transport/transporttest"
)

const testMap = `{
	"piano": [{"Grand": {"cc": 0, "pc": 1}}, {"Piano 1w": {"cc": 8, "pc": 1}}],
	"drums": [{"Standard": {"cc": 0, "pc": 1}}, {"Room": {"cc": 0, "pc": 9}}]
}`

func newTestController(t *testing.T, opts ...Option) (*Controller, *transporttest.Recorder) {
	t.Helper()
	cat, err := catalogue.Load([]byte(testMap))
	if err != nil {
		t.Fatalf("loading catalogue: %v", err)
	}
	logger, _ := test.NewNullLogger()
	rec := &transporttest.Recorder{}
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(navigation.New(cat), rec, opts...), rec
}

func assertMessages(t *testing.T, got [][]byte, want ...[]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("sent %d messages % X, want %d % X", len(got), got, len(want), want)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("message %d = % X, want % X", i, got[i], want[i])
		}
	}
}

func TestStartSendsInitialSelectionTwice(t *testing.T) {
	c, rec := newTestController(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	assertMessages(t, rec.Messages(),
		[]byte{0xB0, 0, 0}, []byte{0xC0, 0},
		[]byte{0xB0, 0, 0}, []byte{0xC0, 0},
	)
}

func TestKeysDriveNavigation(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		group string
		inst  string
		want  [][]byte
	}{
		{
			name:  "next instrument",
			keys:  []string{"s"},
			group: "piano",
			inst:  "Piano 1w",
			want:  [][]byte{{0xB0, 0, 8}, {0xC0, 0}, {0xB0, 0, 8}, {0xC0, 0}},
		},
		{
			name:  "prev instrument wraps",
			keys:  []string{"w"},
			group: "piano",
			inst:  "Piano 1w",
			want:  [][]byte{{0xB0, 0, 8}, {0xC0, 0}, {0xB0, 0, 8}, {0xC0, 0}},
		},
		{
			name:  "next group is drums on channel 10",
			keys:  []string{"d"},
			group: "drums",
			inst:  "Standard",
			want:  [][]byte{{0xB9, 0, 0}, {0xC9, 0}, {0xB9, 0, 0}, {0xC9, 0}},
		},
		{
			name:  "prev group wraps to drums",
			keys:  []string{"a", "s"},
			group: "drums",
			inst:  "Room",
			want:  [][]byte{{0xB9, 0, 0}, {0xC9, 8}, {0xB9, 0, 0}, {0xC9, 8}},
		},
		{
			name:  "back to piano resets channel",
			keys:  []string{"d", "d"},
			group: "piano",
			inst:  "Grand",
			want:  [][]byte{{0xB0, 0, 0}, {0xC0, 0}, {0xB0, 0, 0}, {0xC0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestController(t)
			for _, k := range tt.keys {
				rec.Reset()
				if err := c.OnKey(k); err != nil {
					t.Fatalf("OnKey(%q): %v", k, err)
				}
			}
			if g := c.Cursor().Group(); g != tt.group {
				t.Errorf("group = %q, want %q", g, tt.group)
			}
			if n := c.Current().Name; n != tt.inst {
				t.Errorf("instrument = %q, want %q", n, tt.inst)
			}
			assertMessages(t, rec.Messages(), tt.want...)
		})
	}
}

func TestOtherKeysAreNoOps(t *testing.T) {
	c, rec := newTestController(t)
	for _, k := range []string{"x", "W", "enter", " ", ""} {
		if err := c.OnKey(k); err != nil {
			t.Fatalf("OnKey(%q): %v", k, err)
		}
	}
	if len(rec.Messages()) != 0 {
		t.Errorf("no-op keys sent % X", rec.Messages())
	}
	if c.Cursor().GroupIndex() != 0 || c.Cursor().InstrumentIndex() != 0 {
		t.Error("no-op keys moved the cursor")
	}
}

func TestRepeatOption(t *testing.T) {
	c, rec := newTestController(t, WithRepeat(1))
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	assertMessages(t, rec.Messages(), []byte{0xB0, 0, 0}, []byte{0xC0, 0})

	c, rec = newTestController(t, WithRepeat(0))
	_ = c.Start()
	if len(rec.Messages()) != 2*DefaultRepeat {
		t.Errorf("WithRepeat(0) sent %d messages", len(rec.Messages()))
	}
}

func TestSendErrorSurfaces(t *testing.T) {
	c, rec := newTestController(t)
	rec.Err = errors.New("port closed")
	if err := c.OnKey("s"); !errors.Is(err, rec.Err) {
		t.Errorf("expected port error, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	c, rec := newTestController(t)
	if err := c.Select(1, 1); err != nil {
		t.Fatal(err)
	}
	if c.Current().Name != "Room" || c.Current().Channel != catalogue.DrumChannel {
		t.Errorf("current = %+v", c.Current())
	}
	if len(rec.Messages()) != 4 {
		t.Errorf("sent %d messages", len(rec.Messages()))
	}
}

func TestDirectSet(t *testing.T) {
	rec := &transporttest.Recorder{}
	inst, err := DirectSet(rec, 5, 10, catalogue.OneBased)
	if err != nil {
		t.Fatal(err)
	}
	assertMessages(t, rec.Messages(), []byte{0xB0, 0, 5}, []byte{0xC0, 9})
	if inst.Channel != 0 || inst.ProgramChange != 9 {
		t.Errorf("instrument = %+v", inst)
	}

	rec.Reset()
	if _, err := DirectSet(rec, 5, 10, catalogue.ZeroBased); err != nil {
		t.Fatal(err)
	}
	assertMessages(t, rec.Messages(), []byte{0xB0, 0, 5}, []byte{0xC0, 10})
}

func TestDirectSetRange(t *testing.T) {
	tests := []struct {
		cc, pc int
		base   catalogue.ProgramBase
	}{
		{128, 1, catalogue.OneBased},
		{-1, 1, catalogue.OneBased},
		{0, 0, catalogue.OneBased},
		{0, 129, catalogue.OneBased},
		{0, 128, catalogue.ZeroBased},
	}
	for _, tt := range tests {
		rec := &transporttest.Recorder{}
		_, err := DirectSet(rec, tt.cc, tt.pc, tt.base)
		if !errors.Is(err, ErrInvalidPatch) {
			t.Errorf("DirectSet(%d, %d, %s): expected ErrInvalidPatch, got %v", tt.cc, tt.pc, tt.base, err)
		}
		if kind := ftag.Get(err); kind != KindInvalidPatch {
			t.Errorf("DirectSet(%d, %d, %s): kind = %q", tt.cc, tt.pc, tt.base, kind)
		}
		if len(rec.Messages()) != 0 {
			t.Errorf("DirectSet(%d, %d) sent messages after failing", tt.cc, tt.pc)
		}
	}
}

func TestPlayNote(t *testing.T) {
	c, rec := newTestController(t)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	_ = c.Handle(NextGroup) // drums
	rec.Reset()

	if err := c.PlayNote(context.Background()); err != nil {
		t.Fatal(err)
	}
	assertMessages(t, rec.Messages(), []byte{0x99, 60, 80}, []byte{0x89, 60, 0})
	if len(slept) != 2 || slept[0] != NoteHold || slept[1] != NoteRest {
		t.Errorf("sleeps = %v", slept)
	}
}

func TestPlayNoteCancelledStillReleases(t *testing.T) {
	rec := &transporttest.Recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PlayNote(ctx, rec, &catalogue.Instrument{Name: "Grand"}, 60, 80)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	assertMessages(t, rec.Messages(), []byte{0x90, 60, 80}, []byte{0x80, 60, 0})
}

func TestActionForKey(t *testing.T) {
	want := map[string]Action{"d": NextGroup, "a": PrevGroup, "s": NextInstrument, "w": PrevInstrument, "q": None}
	for k, a := range want {
		if got := ActionForKey(k); got != a {
			t.Errorf("ActionForKey(%q) = %s, want %s", k, got, a)
		}
	}
}
