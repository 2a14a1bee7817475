package runner

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

// allowedGoPackages is the stdlib subset visible to interpreted programs.
// Anything touching the filesystem, network, processes or unsafe is absent.
var allowedGoPackages = map[string]bool{
	"bytes":           true,
	"container/list":  true,
	"encoding/base64": true,
	"encoding/json":   true,
	"errors":          true,
	"fmt":             true,
	"math":            true,
	"math/rand":       true,
	"regexp":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"time":            true,
	"unicode":         true,
	"unicode/utf8":    true,
}

// restrictedSymbols filters the yaegi stdlib export table to allowedGoPackages.
// Keys have the form "path/name", e.g. "encoding/json/json".
func restrictedSymbols() interp.Exports {
	out := interp.Exports{}
	for key, syms := range stdlib.Symbols {
		idx := strings.LastIndex(key, "/")
		if idx < 0 {
			continue
		}
		if allowedGoPackages[key[:idx]] {
			out[key] = syms
		}
	}
	return out
}

// Go interprets Go programs with yaegi.
type Go struct {
	cfg     config
	symbols interp.Exports
}

// NewGo creates a Go runner.
func NewGo(opts ...Option) *Go {
	return &Go{cfg: newConfig(opts), symbols: restrictedSymbols()}
}

// Name implements Runner.
func (g *Go) Name() string { return "yaegi" }

// Run implements Runner.
func (g *Go) Run(ctx context.Context, _ domain.Language, code string) (Result, error) {
	if err := checkGoImports(code); err != nil {
		return g.failure(err.Error(), ""), nil
	}

	out := NewTailBuffer(g.cfg.maxOutput)
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(g.symbols); err != nil {
		return Result{}, fmt.Errorf("load stdlib symbols: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.timeout)
	defer cancel()

	_, err := i.EvalWithContext(ctx, code)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return g.failure(fmt.Sprintf("Execution timed out after %s", g.cfg.timeout), out.String()), nil
		}
		return g.failure(err.Error(), out.String()), nil
	}

	output := out.String()
	if output == "" {
		output = "Go code executed successfully. No output written to stdout."
	}
	return Result{Output: output, Live: true}, nil
}

// failure reports an interpreter error. yaegi does not expose the
// interpreted call stack, so the stack section is always empty.
func (g *Go) failure(message, captured string) Result {
	return Result{
		Output: fmt.Sprintf("Error executing Go:\n%s\nStack:\n%s\n\nCaptured Output:\n%s",
			message, noStack, strings.TrimRight(captured, "\n")),
		ErrorMessage:     message,
		ErrorDescription: "Error during Go execution.",
		Failed:           true,
		Live:             true,
	}
}

// checkGoImports rejects imports outside allowedGoPackages. Sources that do
// not parse as a file are left for the interpreter to report.
func checkGoImports(code string) error {
	f, err := parser.ParseFile(token.NewFileSet(), "main.go", code, parser.ImportsOnly)
	if err != nil {
		return nil
	}
	var forbidden []string
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if !allowedGoPackages[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) == 0 {
		return nil
	}
	allowed := make([]string, 0, len(allowedGoPackages))
	for pkg := range allowedGoPackages {
		allowed = append(allowed, pkg)
	}
	sort.Strings(allowed)
	return fmt.Errorf("forbidden imports: %s (allowed: %s)",
		strings.Join(forbidden, ", "), strings.Join(allowed, ", "))
}
