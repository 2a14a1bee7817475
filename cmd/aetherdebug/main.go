// AetherDebug - AI-assisted code debugging server and CLI
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aetherdebug/aetherdebug/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// cliState is shared by the subcommands of one invocation.
type cliState struct {
	cfg     *config.Config
	noColor bool
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "aetherdebug",
		Short:         "Run code, explain its errors and suggest fixes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				slog.Debug("No .env file found, using environment variables")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st.cfg = cfg
			noColor = st.noColor || os.Getenv("NO_COLOR") != ""

			// Stdout belongs to command output (and to the protocol under mcp).
			setupLogging(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&st.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newServeCmd(st),
		newRunCmd(st),
		newGenerateCmd(st),
		newMCPCmd(st),
		newLanguagesCmd(st),
	)
	return root
}

func setupLogging(w io.Writer, level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// requireAI fails fast for commands that cannot work without a model.
func requireAI(cfg *config.Config) error {
	if !cfg.Gemini.Enabled() {
		return fmt.Errorf("AI is not configured: set GEMINI_API_KEY")
	}
	return nil
}
