package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aetherdebug/aetherdebug/internal/assistant"
)

func newGenerateCmd(st *cliState) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "generate <description>",
		Short: "Generate code from a natural language description",
		Long: `Generate code from a natural language description.

Examples:
  aetherdebug generate "reverse a linked list"
  aetherdebug generate --lang go "parse a CSV file and sum the second column"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAI(st.cfg); err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, st.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			language, err := a.catalog.Lookup(lang)
			if err != nil {
				return err
			}

			printStep("Generating %s code with %s", language.Label, a.model)
			out, err := a.assistant.GenerateCodeFromDescription(ctx, assistant.GenerateCodeInput{
				Description: strings.Join(args, " "),
				Language:    language.ID,
			})
			if err != nil {
				return fmt.Errorf("generate code: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Code)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "javascript", "language id of the generated code")
	return cmd
}
