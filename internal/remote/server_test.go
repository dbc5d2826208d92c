package remote

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/icco/sc8850/internal/catalogue"
	"github.com/icco/sc8850/internal/navigation"
	"github.com/icco/sc8850/internal/selector"
	"github.com/icco/sc8850/internal/transport"
	"github.com/icco/sc8850/internal/transport/transporttest"
)

const testMap = `{
	"piano": [{"Grand": {"cc": 0, "pc": 1}}, {"Piano 1w": {"cc": 8, "pc": 1}}],
	"drums": [{"Standard": {"cc": 0, "pc": 1}}, {"Room": {"cc": 0, "pc": 9}}]
}`

func newTestServer(t *testing.T) (*Server, *transporttest.Recorder) {
	t.Helper()
	cat, err := catalogue.Load([]byte(testMap))
	if err != nil {
		t.Fatalf("loading catalogue: %v", err)
	}
	logger, _ := test.NewNullLogger()
	rec := &transporttest.Recorder{}
	ctrl := selector.New(navigation.New(cat), rec, selector.WithLogger(logger))
	return New(ctrl, rec, logger), rec
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	return mcp.GetTextFromContent(res.Content[0])
}

func TestListGroups(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.listGroups(context.Background(), call(nil))
	got := resultText(t, res, err)
	if got != "piano (2)\ndrums (2)\n" {
		t.Errorf("list_groups = %q", got)
	}
}

func TestListInstruments(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.listInstruments(context.Background(), call(map[string]any{"group": "drums"}))
	got := resultText(t, res, err)
	if got != "0: Standard cc=0 pc=0\n1: Room cc=0 pc=8\n" {
		t.Errorf("list_instruments = %q", got)
	}

	res, _ = s.listInstruments(context.Background(), call(map[string]any{"group": "kazoo"}))
	if !res.IsError {
		t.Error("unknown group should be a tool error")
	}
	res, _ = s.listInstruments(context.Background(), call(nil))
	if !res.IsError {
		t.Error("missing group should be a tool error")
	}
}

func TestSelectInstrument(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    [][]byte
		isError bool
	}{
		{
			name: "by group and index",
			args: map[string]any{"group": "drums", "index": float64(1)},
			want: [][]byte{{0xB9, 0, 0}, {0xC9, 8}, {0xB9, 0, 0}, {0xC9, 8}},
		},
		{
			name: "by name",
			args: map[string]any{"name": "piano 1W"},
			want: [][]byte{{0xB0, 0, 8}, {0xC0, 0}, {0xB0, 0, 8}, {0xC0, 0}},
		},
		{name: "unknown name", args: map[string]any{"name": "theremin"}, isError: true},
		{name: "unknown group", args: map[string]any{"group": "kazoo", "index": 0}, isError: true},
		{name: "index out of range", args: map[string]any{"group": "piano", "index": 2}, isError: true},
		{name: "nothing given", args: nil, isError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestServer(t)
			res, err := s.selectInstrument(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if res.IsError != tt.isError {
				t.Fatalf("IsError = %v: %s", res.IsError, mcp.GetTextFromContent(res.Content[0]))
			}
			msgs := rec.Messages()
			if len(msgs) != len(tt.want) {
				t.Fatalf("sent % X, want % X", msgs, tt.want)
			}
			for i := range tt.want {
				if !bytes.Equal(msgs[i], tt.want[i]) {
					t.Errorf("message %d = % X, want % X", i, msgs[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectInstrumentSendError(t *testing.T) {
	s, rec := newTestServer(t)
	rec.Err = errors.New("port closed")
	res, err := s.selectInstrument(context.Background(), call(map[string]any{"name": "Room"}))
	got := resultText(t, res, err)
	if !res.IsError || !strings.Contains(got, "port closed") {
		t.Errorf("result = %q", got)
	}
}

func TestSetPatch(t *testing.T) {
	s, rec := newTestServer(t)
	res, err := s.setPatch(context.Background(), call(map[string]any{"cc": float64(5), "pc": float64(10)}))
	got := resultText(t, res, err)
	if res.IsError || got != "sent cc=5 pc=9" {
		t.Errorf("set_patch = %q", got)
	}
	msgs := rec.Messages()
	if len(msgs) != 2 || !bytes.Equal(msgs[0], []byte{0xB0, 0, 5}) || !bytes.Equal(msgs[1], []byte{0xC0, 9}) {
		t.Errorf("sent % X", msgs)
	}

	for _, args := range []map[string]any{
		{"cc": 200, "pc": 1},
		{"cc": 0, "pc": 0},
		{"pc": 1},
		{"cc": "x", "pc": 1},
	} {
		res, _ := s.setPatch(context.Background(), call(args))
		if !res.IsError {
			t.Errorf("set_patch(%v) should fail", args)
		}
	}
}

func TestSetPatchUsesConfiguredBase(t *testing.T) {
	cat, err := catalogue.Default()
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	rec := &transporttest.Recorder{}
	ctrl := selector.New(navigation.New(cat), rec, selector.WithLogger(logger))
	s := New(ctrl, rec, logger, WithProgramBase(catalogue.ZeroBased))

	res, err := s.setPatch(context.Background(), call(map[string]any{"cc": float64(5), "pc": float64(10)}))
	got := resultText(t, res, err)
	if res.IsError || got != "sent cc=5 pc=10" {
		t.Errorf("set_patch = %q", got)
	}

	direct := &transporttest.Recorder{}
	if _, err := selector.DirectSet(direct, 5, 10, catalogue.ZeroBased); err != nil {
		t.Fatal(err)
	}
	msgs, want := rec.Messages(), direct.Messages()
	if len(msgs) != len(want) {
		t.Fatalf("sent % X, want % X", msgs, want)
	}
	for i := range want {
		if !bytes.Equal(msgs[i], want[i]) {
			t.Errorf("message %d = % X, want % X", i, msgs[i], want[i])
		}
	}

	// pc 0 is valid in zero-based numbering
	res, _ = s.setPatch(context.Background(), call(map[string]any{"cc": 0, "pc": 0}))
	if res.IsError {
		t.Errorf("set_patch pc=0 under zero base failed: %s", mcp.GetTextFromContent(res.Content[0]))
	}
}

func TestPlayNote(t *testing.T) {
	s, _ := newTestServer(t)
	var got struct {
		inst           string
		channel        uint8
		note, velocity uint8
	}
	s.play = func(_ context.Context, _ transport.Sender, inst *catalogue.Instrument, note, velocity uint8) error {
		got.inst, got.channel, got.note, got.velocity = inst.Name, inst.Channel, note, velocity
		return nil
	}

	if res, _ := s.selectInstrument(context.Background(), call(map[string]any{"name": "Standard"})); res.IsError {
		t.Fatal("select failed")
	}

	res, err := s.playNote(context.Background(), call(nil))
	resultText(t, res, err)
	if got.inst != "Standard" || got.channel != catalogue.DrumChannel || got.note != 60 || got.velocity != 80 {
		t.Errorf("played %+v", got)
	}

	res, err = s.playNote(context.Background(), call(map[string]any{"note": float64(36), "velocity": float64(127)}))
	resultText(t, res, err)
	if got.note != 36 || got.velocity != 127 {
		t.Errorf("played %+v", got)
	}

	res, _ = s.playNote(context.Background(), call(map[string]any{"note": 128}))
	if !res.IsError {
		t.Error("note 128 should fail")
	}
}

func TestMCPServerRegistersTools(t *testing.T) {
	s, _ := newTestServer(t)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"list_groups", "list_instruments", "select_instrument", "set_patch", "play_note"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}
