package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aetherdebug/aetherdebug/internal/debugger"
	"github.com/aetherdebug/aetherdebug/internal/domain"
)

// extLanguages maps file extensions to catalog ids.
var extLanguages = map[string]string{
	".js":   "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".go":   "go",
	".py":   "python",
	".java": "java",
	".cs":   "csharp",
	".cpp":  "cpp",
	".cc":   "cpp",
	".html": "html",
	".css":  "css",
}

const watchDebounce = 300 * time.Millisecond

func newRunCmd(st *cliState) *cobra.Command {
	var (
		lang  string
		noAI  bool
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a file and explain the result",
		Long: `Run a file through the debugger: execute (or simulate) it, then ask the AI
to explain the result and suggest a fix.

Examples:
  aetherdebug run ./buggy.js
  aetherdebug run ./main.go --no-ai
  aetherdebug run ./script.py --lang python --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if lang == "" {
				lang = languageForPath(path)
			}
			if lang == "" {
				return fmt.Errorf("cannot infer language from %q: pass --lang", filepath.Base(path))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, st.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			language, err := a.catalog.Lookup(lang)
			if err != nil {
				return err
			}
			skipAI := noAI || !st.cfg.Gemini.Enabled()
			if skipAI && !noAI {
				printWarning("AI is not configured; showing execution output only")
			}

			out := cmd.OutOrStdout()
			once := func() {
				if err := runFile(ctx, a.pipeline, language, path, skipAI, out); err != nil {
					printError("%v", err)
				}
			}

			if !watch {
				return runFile(ctx, a.pipeline, language, path, skipAI, out)
			}
			once()
			printStep("Watching %s for changes (Ctrl+C to stop)", path)
			return watchFile(ctx, path, watchDebounce, func() {
				printStep("%s changed, re-running", filepath.Base(path))
				once()
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "language id (default: inferred from the file extension)")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "only execute, skip the AI explanation and fix")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run whenever the file changes")
	return cmd
}

func languageForPath(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}

// runFile reads path and prints each panel as the pipeline fills it.
func runFile(ctx context.Context, p *debugger.Pipeline, lang domain.Language, path string, skipAI bool, w io.Writer) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	_, err = p.Run(ctx, debugger.Request{
		Language: lang,
		Code:     string(code),
		SkipAI:   skipAI,
	}, func(stage debugger.Stage, rep debugger.Report) {
		switch stage {
		case debugger.StageOutput:
			printSection(w, "Output", rep.Output)
		case debugger.StageDone:
			if rep.Explanation != "" {
				printSection(w, "AI Explanation", rep.Explanation)
			}
			if rep.SuggestedFix != "" {
				printSection(w, "AI Suggested Fix", rep.SuggestedFix)
			}
			if rep.Notice != nil {
				printNotice(*rep.Notice)
			}
		}
	})
	return err
}

func printNotice(n domain.Notice) {
	if n.Variant == domain.VariantDestructive {
		printError("%s: %s", n.Title, n.Description)
		return
	}
	printSuccess("%s: %s", n.Title, n.Description)
}
