package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

var goLang = domain.Language{ID: "go", Label: "Go", Live: true}

func TestGoRunsProgram(t *testing.T) {
	code := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi from go\")\n}\n"
	res, err := NewGo().Run(context.Background(), goLang, code)
	require.NoError(t, err)

	assert.False(t, res.Failed, res.Output)
	assert.Contains(t, res.Output, "hi from go")
}

func TestGoRejectsForbiddenImport(t *testing.T) {
	code := "package main\n\nimport \"os\"\n\nfunc main() {\n\tos.Exit(1)\n}\n"
	res, err := NewGo().Run(context.Background(), goLang, code)
	require.NoError(t, err)

	require.True(t, res.Failed)
	assert.Contains(t, res.ErrorMessage, "forbidden imports: os")
	assert.Contains(t, res.Output, "Error executing Go:\n")
}

func TestGoCompileError(t *testing.T) {
	code := "package main\n\nfunc main() {\n\tundefinedThing()\n}\n"
	res, err := NewGo().Run(context.Background(), goLang, code)
	require.NoError(t, err)

	assert.True(t, res.Failed)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestCheckGoImports(t *testing.T) {
	assert.NoError(t, checkGoImports("package main\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n"))
	assert.Error(t, checkGoImports("package main\nimport \"net/http\"\n"))
	assert.NoError(t, checkGoImports("fmt.Println(1)"), "unparsable sources are left to the interpreter")
}

func TestRestrictedSymbols(t *testing.T) {
	syms := restrictedSymbols()

	assert.Contains(t, syms, "fmt/fmt")
	assert.Contains(t, syms, "encoding/json/json")
	assert.NotContains(t, syms, "os/os")
	assert.NotContains(t, syms, "net/http/http")
}
