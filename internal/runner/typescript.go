package runner

import (
	"context"
	"fmt"

	typescript "github.com/clarkmcc/go-typescript"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

const tsEntry = "__aether_main__"

// TypeScript transpiles code to ES5 and runs the result on a JavaScript runner.
type TypeScript struct {
	js *JavaScript
}

// NewTypeScript creates a TypeScript runner backed by js.
func NewTypeScript(js *JavaScript) *TypeScript {
	return &TypeScript{js: js}
}

// Name implements Runner.
func (t *TypeScript) Name() string { return "goja+typescript" }

// Run implements Runner.
func (t *TypeScript) Run(ctx context.Context, _ domain.Language, code string) (Result, error) {
	// Wrapping in a function keeps top-level return legal for the compiler.
	src := fmt.Sprintf("function %s() {\n%s\n}", tsEntry, code)
	compileOptions := map[string]interface{}{
		"target": "ES5",
		"module": "None",
		"lib":    []string{},
	}
	js, err := typescript.TranspileString(src, typescript.WithCompileOptions(compileOptions))
	if err != nil {
		msg := err.Error()
		return Result{
			Output:           "TypeScript compilation error:\n" + msg,
			ErrorMessage:     msg,
			ErrorDescription: "TypeScript compilation error.",
			Failed:           true,
			Live:             true,
		}, nil
	}
	return t.js.runBody(ctx, "TypeScript", js+"\nreturn "+tsEntry+"();")
}
