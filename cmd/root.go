package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Southclaws/fault/fmsg"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the system MIDI driver

	"github.com/icco/sc8850/internal/catalogue"
	"github.com/icco/sc8850/internal/config"
	"github.com/icco/sc8850/internal/navigation"
	"github.com/icco/sc8850/internal/selector"
	"github.com/icco/sc8850/internal/transport"
	"github.com/icco/sc8850/internal/tui"
)

// flags holds raw command line values. They only override the config file
// when set explicitly.
var flags struct {
	configPath  string
	device      int
	listDevices bool
	pc          int
	cc          int
	columns     int
	catalogue   string
	pcBase      string
	repeat      int
	logFile     string
	logLevel    string
	dryRun      bool
	preview     bool
	record      string
}

var rootCmd = newRootCmd()

// startBrowser runs the interactive view until the operator quits.
var startBrowser = func(m tui.Model) error {
	return tui.Run(m)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sc8850",
		Short: "Browse and select instruments on a Roland SC-8850",
		Long: `sc8850 is a terminal instrument browser for the Roland SC-8850 and other
General MIDI synthesizers.

Instruments are shown in a grid, one group at a time. Moving the cursor sends
a bank select and program change to the synth immediately.

  w/s or up/down      previous/next instrument
  a/d or left/right   previous/next group
  p                   play a test note
  q                   quit

Examples:
  sc8850 --listdevices
  sc8850 --device 1
  sc8850 --cc 8 --pc 5
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/sc8850/config.yaml)")
	pf.IntVar(&flags.device, "device", 0, "MIDI output port index")
	pf.StringVar(&flags.catalogue, "catalogue", "", "instrument map JSON file (default built-in General MIDI map)")
	pf.StringVar(&flags.pcBase, "pc-base", "one", "program numbering in the map and on the command line: one or zero")
	pf.IntVar(&flags.repeat, "repeat", selector.DefaultRepeat, "times each selection is sent")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file")
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel, "log level")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "log MIDI instead of opening a port")
	pf.BoolVar(&flags.preview, "preview", false, "also play through the built-in synth")
	pf.StringVar(&flags.record, "record", "", "record everything sent to a MIDI file")

	f := cmd.Flags()
	f.BoolVar(&flags.listDevices, "listdevices", false, "list MIDI output ports and exit")
	f.IntVar(&flags.pc, "pc", 0, "send this program change and exit")
	f.IntVar(&flags.cc, "cc", 0, "send this bank select and exit")
	f.IntVar(&flags.columns, "columns", config.DefaultColumns, "grid columns")

	cmd.AddCommand(newPlayCmd(), newGroupsCmd(), newMCPCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	midi.CloseDriver()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// describe prefers the operator-facing issue over the wrapped error chain.
func describe(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}

func runRoot(cmd *cobra.Command, _ []string) (err error) {
	if flags.listDevices {
		return transport.WritePortList(cmd.OutOrStdout(), transport.ListPorts())
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sess.Close()) }()

	if cmd.Flags().Changed("pc") || cmd.Flags().Changed("cc") {
		return runDirectSet(cmd, sess)
	}

	cat, err := cfg.LoadCatalogue()
	if err != nil {
		return err
	}
	ctrl := selector.New(navigation.New(cat), sess.out,
		selector.WithRepeat(cfg.Repeat),
		selector.WithLogger(sess.log),
	)
	if err := ctrl.Start(); err != nil {
		return err
	}

	return startBrowser(tui.New(ctrl, cfg.Columns, tui.WithOutputName(sess.outName)))
}

// runDirectSet sends one patch without the browser. A missing --pc or --cc
// means program or bank 0 on the wire.
func runDirectSet(cmd *cobra.Command, sess *session) error {
	base, err := sess.cfg.Base()
	if err != nil {
		return err
	}
	pc := flags.pc
	if !cmd.Flags().Changed("pc") {
		pc = firstProgram(base)
	}

	inst, err := selector.DirectSet(sess.out, flags.cc, pc, base)
	if err != nil {
		return err
	}
	sess.log.WithField("patch", inst.String()).Info("direct set")
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "sent cc=%d pc=%d to %s\n", inst.ControlChange, inst.ProgramChange, sess.outName)
	return err
}

func firstProgram(base catalogue.ProgramBase) int {
	if base == catalogue.OneBased {
		return 1
	}
	return 0
}
