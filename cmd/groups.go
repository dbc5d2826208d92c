package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/icco/sc8850/internal/catalogue"
)

var groupsVerbose bool

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Print the instrument map",
		Long: `Print the groups of the instrument map in order. With --verbose every
instrument is listed with the bank and program numbers sent for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			cat, err := cfg.LoadCatalogue()
			if err != nil {
				return err
			}
			return printCatalogue(cmd.OutOrStdout(), cat, groupsVerbose)
		},
	}
	cmd.Flags().BoolVarP(&groupsVerbose, "verbose", "v", false, "list instruments too")
	return cmd
}

func printCatalogue(w io.Writer, cat *catalogue.Catalogue, verbose bool) error {
	for _, g := range cat.Groups() {
		insts := cat.InstrumentsIn(g)
		if _, err := fmt.Fprintf(w, "%s (%d)\n", g, len(insts)); err != nil {
			return err
		}
		if !verbose {
			continue
		}
		for i, inst := range insts {
			if _, err := fmt.Fprintf(w, "  %3d  %s\n", i, inst); err != nil {
				return err
			}
		}
	}
	return nil
}
