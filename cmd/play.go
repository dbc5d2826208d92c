package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icco/sc8850/internal/catalogue"
	"github.com/icco/sc8850/internal/navigation"
	"github.com/icco/sc8850/internal/selector"
)

var playFlags struct {
	group    string
	index    int
	name     string
	note     uint8
	velocity uint8
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Select an instrument and play a test note",
		Long: `Select an instrument on the synth and play a single test note on it.

Without --name or --group the first instrument of the map is used.

Examples:
  sc8850 play --name "Electric Grand Piano"
  sc8850 play --group drums --index 1 --note 38
`,
		Args: cobra.NoArgs,
		RunE: runPlay,
	}

	f := cmd.Flags()
	f.StringVar(&playFlags.group, "group", "", "group to select from")
	f.IntVar(&playFlags.index, "index", 0, "instrument position within --group")
	f.StringVar(&playFlags.name, "name", "", "instrument name, case-insensitive")
	f.Uint8Var(&playFlags.note, "note", selector.DiagnosticNote, "MIDI note number")
	f.Uint8Var(&playFlags.velocity, "velocity", selector.DiagnosticVelocity, "note velocity")
	return cmd
}

func runPlay(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := cfg.LoadCatalogue()
	if err != nil {
		return err
	}
	gi, ii, err := locate(cat, playFlags.group, playFlags.index, playFlags.name)
	if err != nil {
		return err
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sess.Close()) }()

	ctrl := selector.New(navigation.New(cat), sess.out,
		selector.WithRepeat(cfg.Repeat),
		selector.WithLogger(sess.log),
	)
	if err := ctrl.Select(gi, ii); err != nil {
		return err
	}
	inst := ctrl.Current()
	fmt.Fprintf(cmd.OutOrStdout(), "playing %d on %s/%s\n", playFlags.note, ctrl.Cursor().Group(), inst)
	return selector.PlayNote(cmd.Context(), sess.out, inst, playFlags.note, playFlags.velocity)
}

// locate resolves a name, or a group and index, to cursor positions.
func locate(cat *catalogue.Catalogue, group string, index int, name string) (int, int, error) {
	if name != "" {
		g, inst, ok := cat.Find(name)
		if !ok {
			return 0, 0, fmt.Errorf("no instrument named %q", name)
		}
		group = g
		for i, candidate := range cat.InstrumentsIn(g) {
			if candidate == inst {
				index = i
			}
		}
	}
	if group == "" {
		return 0, 0, nil
	}

	for gi, g := range cat.Groups() {
		if g != group {
			continue
		}
		if n := len(cat.InstrumentsIn(g)); index < 0 || index >= n {
			return 0, 0, fmt.Errorf("index %d out of range, %s has %d instruments", index, g, n)
		}
		return gi, index, nil
	}
	return 0, 0, fmt.Errorf("unknown group %q", group)
}
