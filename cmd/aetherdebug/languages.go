package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aetherdebug/aetherdebug/internal/catalog"
	"github.com/aetherdebug/aetherdebug/internal/domain"
)

func newLanguagesCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tMODE")
			for _, lang := range catalog.Default().All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", lang.ID, lang.Label, executionMode(lang, st.cfg.Run.Interpreters, st.cfg.Sandbox.Enabled))
			}
			return tw.Flush()
		},
	}
}

func executionMode(lang domain.Language, interpreters, sandbox bool) string {
	switch {
	case lang.Live:
		return "live"
	case lang.Interpreter && interpreters:
		return "interpreter"
	case lang.Sandbox != nil && sandbox:
		return "sandbox (" + lang.Sandbox.Image + ")"
	default:
		return "simulated"
	}
}
