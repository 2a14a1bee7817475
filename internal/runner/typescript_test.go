package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

func TestTypeScriptTranspilesAndRuns(t *testing.T) {
	ts := NewTypeScript(NewJavaScript())
	code := `
function add(a: number, b: number): number { return a + b; }
const label: string = "sum=";
console.log(label + add(1, 2));
`
	res, err := ts.Run(context.Background(), domain.Language{ID: "typescript", Label: "TypeScript"}, code)
	require.NoError(t, err)

	assert.False(t, res.Failed)
	assert.True(t, res.Live)
	assert.Equal(t, "sum=3", res.Output)
}
