package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/icco/sc8850/internal/navigation"
	"github.com/icco/sc8850/internal/remote"
	"github.com/icco/sc8850/internal/selector"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the instrument selector over MCP on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout. Tools:

  list_groups, list_instruments, select_instrument, set_patch, play_note

Logs never go to stdout; use --log-file to see them.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.Base()
	if err != nil {
		return err
	}
	cat, err := cfg.LoadCatalogue()
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
	if err := ctrl.Start(); err != nil {
		return err
	}
	return remote.New(ctrl, sess.out, sess.log, remote.WithProgramBase(base)).Serve()
}
