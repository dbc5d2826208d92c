// Package remote exposes the instrument selector as MCP tools over stdio, so
// an assistant can browse the catalogue and switch patches on the synth.
package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/icco/sc8850/internal/catalogue"
	"github.com/icco/sc8850/internal/selector"
	"github.com/icco/sc8850/internal/transport"
)

const (
	serverName    = "SC-8850 selector"
	serverVersion = "1.0.0"
)

type playFunc func(ctx context.Context, out transport.Sender, inst *catalogue.Instrument, note, velocity uint8) error

// Server owns the controller for the lifetime of an MCP session. Tool calls
// may arrive concurrently and are serialised.
type Server struct {
	mu   sync.Mutex
	ctrl *selector.Controller
	out  transport.Sender
	log  logrus.FieldLogger
	play playFunc
	base catalogue.ProgramBase
}

// Option configures a Server.
type Option func(*Server)

// WithProgramBase sets how set_patch reads pc. The default is the
// catalogue's own numbering.
func WithProgramBase(base catalogue.ProgramBase) Option {
	return func(s *Server) {
		s.base = base
	}
}

// New returns a server driving ctrl. out must be the sender ctrl writes to;
// set_patch and play_note use it directly.
func New(ctrl *selector.Controller, out transport.Sender, log logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		ctrl: ctrl,
		out:  out,
		log:  log,
		play: selector.PlayNote,
		base: ctrl.Cursor().Catalogue().ProgramBase(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MCPServer builds the tool set.
func (s *Server) MCPServer() *server.MCPServer {
	m := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	m.AddTool(mcp.NewTool("list_groups",
		mcp.WithDescription("Lists the instrument groups in catalogue order with their sizes."),
	), s.listGroups)

	m.AddTool(mcp.NewTool("list_instruments",
		mcp.WithDescription("Lists the instruments of a group with their bank (cc) and program (pc) numbers."),
		mcp.WithString("group", mcp.Required(), mcp.Description("Group name, e.g. piano or drums.")),
	), s.listInstruments)

	m.AddTool(mcp.NewTool("select_instrument",
		mcp.WithDescription("Selects an instrument on the synthesizer. Give a group and an index, or just a name."),
		mcp.WithString("group", mcp.Description("Group name. Required with index.")),
		mcp.WithNumber("index", mcp.Description("Zero-based position within the group.")),
		mcp.WithString("name", mcp.Description("Instrument name, matched case-insensitively across all groups.")),
	), s.selectInstrument)

	m.AddTool(mcp.NewTool("set_patch",
		mcp.WithDescription("Sends a raw bank select and program change on channel 1, outside the catalogue."),
		mcp.WithNumber("cc", mcp.Required(), mcp.Description("Bank select value (0-127).")),
		mcp.WithNumber("pc", mcp.Required(), mcp.Description("Program number, in the catalogue's numbering.")),
	), s.setPatch)

	m.AddTool(mcp.NewTool("play_note",
		mcp.WithDescription("Plays a short note on the selected instrument."),
		mcp.WithNumber("note", mcp.Description("MIDI note number (default 60)."), mcp.Min(0), mcp.Max(127)),
		mcp.WithNumber("velocity", mcp.Description("Velocity (default 80)."), mcp.Min(1), mcp.Max(127)),
	), s.playNote)

	return m
}

// Serve runs the MCP server on stdin/stdout until the client disconnects.
func (s *Server) Serve() error {
	s.log.Info("starting MCP server")
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) listGroups(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat := s.ctrl.Cursor().Catalogue()
	var b strings.Builder
	for _, name := range cat.Groups() {
		fmt.Fprintf(&b, "%s (%d)\n", name, len(cat.InstrumentsIn(name)))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listInstruments(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	group, err := req.RequireString("group")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	insts := s.ctrl.Cursor().Catalogue().InstrumentsIn(group)
	if insts == nil {
		return mcp.NewToolResultErrorf("unknown group %q", group), nil
	}
	var b strings.Builder
	for i, inst := range insts {
		fmt.Fprintf(&b, "%d: %s\n", i, inst)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) selectInstrument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat := s.ctrl.Cursor().Catalogue()
	group := req.GetString("group", "")
	name := req.GetString("name", "")
	index := req.GetInt("index", -1)

	var gi, ii int
	switch {
	case name != "":
		g, inst, ok := cat.Find(name)
		if !ok {
			return mcp.NewToolResultErrorf("no instrument named %q", name), nil
		}
		gi = groupIndex(cat, g)
		for i, candidate := range cat.InstrumentsIn(g) {
			if candidate == inst {
				ii = i
				break
			}
		}
	case group != "" && index >= 0:
		gi = groupIndex(cat, group)
		if gi < 0 {
			return mcp.NewToolResultErrorf("unknown group %q", group), nil
		}
		if n := len(cat.InstrumentsIn(group)); index >= n {
			return mcp.NewToolResultErrorf("index %d out of range, %s has %d instruments", index, group, n), nil
		}
		ii = index
	default:
		return mcp.NewToolResultError("give a name, or a group and an index"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.Select(gi, ii); err != nil {
		s.log.WithError(err).Error("select failed")
		return mcp.NewToolResultErrorFromErr("sending selection", err), nil
	}
	cur := s.ctrl.Current()
	return mcp.NewToolResultText(fmt.Sprintf("selected %s/%s on channel %d", s.ctrl.Cursor().Group(), cur, cur.Channel+1)), nil
}

func (s *Server) setPatch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cc, err := req.RequireInt("cc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pc, err := req.RequireInt("pc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inst, err := selector.DirectSet(s.out, cc, pc, s.base)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("set patch", err), nil
	}
	s.log.WithFields(logrus.Fields{"cc": inst.ControlChange, "pc": inst.ProgramChange}).Info("patch set")
	return mcp.NewToolResultText(fmt.Sprintf("sent cc=%d pc=%d", inst.ControlChange, inst.ProgramChange)), nil
}

func (s *Server) playNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note := req.GetInt("note", int(selector.DiagnosticNote))
	velocity := req.GetInt("velocity", int(selector.DiagnosticVelocity))
	if note < 0 || note > 127 || velocity < 1 || velocity > 127 {
		return mcp.NewToolResultErrorf("note must be 0-127 and velocity 1-127, got %d and %d", note, velocity), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inst := s.ctrl.Current()
	if err := s.play(ctx, s.out, inst, uint8(note), uint8(velocity)); err != nil { //nolint:gosec // range checked above
		return mcp.NewToolResultErrorFromErr("play note", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("played note %d on %s", note, inst.Name)), nil
}

func groupIndex(cat *catalogue.Catalogue, name string) int {
	for i, g := range cat.Groups() {
		if g == name {
			return i
		}
	}
	return -1
}
