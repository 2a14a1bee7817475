package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

var jsLang = domain.Language{ID: domain.JavaScript, Label: "JavaScript", Live: true}

func runJS(t *testing.T, code string, opts ...Option) Result {
	t.Helper()
	res, err := NewJavaScript(opts...).Run(context.Background(), jsLang, code)
	require.NoError(t, err)
	return res
}

func TestJavaScriptConsoleLog(t *testing.T) {
	res := runJS(t, `console.log("hello")`)

	assert.False(t, res.Failed)
	assert.True(t, res.Live)
	assert.Equal(t, "hello", res.Output)
	assert.NotContains(t, res.Output, "EXCEPTION")
}

func TestJavaScriptFormatting(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"object", `console.log({a: 1, b: [1, 2]})`, `{"a":1,"b":[1,2]}`},
		{"null", `console.log(null)`, "null"},
		{"undefined", `console.log(undefined)`, "undefined"},
		{"mixed args", `console.log("sum:", 3, true)`, "sum: 3 true"},
		{"array", `console.log([1, "x"])`, `[1,"x"]`},
		{"circular", `var a = {}; a.self = a; console.log(a)`, unserializable},
		{"error level", `console.error("bad")`, "ERROR: bad"},
		{"warn level", `console.warn("careful")`, "WARN: careful"},
		{"info level", `console.info("note")`, "INFO: note"},
		{"debug level", `console.debug("trace")`, "DEBUG: trace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runJS(t, tt.code)
			assert.Equal(t, tt.want, res.Output)
		})
	}
}

func TestJavaScriptReturnValue(t *testing.T) {
	res := runJS(t, "console.log('a');\nreturn 42;")

	assert.Equal(t, "a\nReturn value: 42", res.Output)
}

func TestJavaScriptNoOutput(t *testing.T) {
	res := runJS(t, "var x = 1 + 1;")

	assert.False(t, res.Failed)
	assert.Equal(t, "JavaScript code executed successfully. No output logged to console.", res.Output)
}

func TestJavaScriptException(t *testing.T) {
	res := runJS(t, "console.log('before');\nthrow new Error('boom');")

	require.True(t, res.Failed)
	assert.Equal(t, "boom", res.ErrorMessage)
	assert.NotEmpty(t, res.ErrorDescription)
	assert.Contains(t, res.Output, "Error executing JavaScript:\nboom\nStack:\n")
	assert.Contains(t, res.Output, "\n\nCaptured Logs:\nbefore\nEXCEPTION: boom")
}

func TestJavaScriptReferenceError(t *testing.T) {
	res := runJS(t, "undefinedFunction();")

	require.True(t, res.Failed)
	assert.Contains(t, res.ErrorMessage, "undefinedFunction")
	assert.Contains(t, res.Output, "EXCEPTION: ")
}

func TestJavaScriptTimeout(t *testing.T) {
	start := time.Now()
	res := runJS(t, "while (true) {}", WithTimeout(100*time.Millisecond))

	require.True(t, res.Failed)
	assert.Contains(t, res.ErrorMessage, "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestJavaScriptRecursionLimit(t *testing.T) {
	res := runJS(t, "function f() { return f(); }\nf();", WithMaxCallStack(100))

	assert.True(t, res.Failed)
}

func TestJavaScriptLineCap(t *testing.T) {
	res := runJS(t, "for (var i = 0; i < 10; i++) { console.log(i); }", WithMaxLines(3))

	assert.Equal(t, "0\n1\n2\n... 7 more lines not shown", res.Output)
}

func TestJavaScriptByteCap(t *testing.T) {
	res := runJS(t, `console.log("abcdef"); console.log("ghijkl"); console.log("x");`, WithMaxOutput(10))

	assert.Equal(t, "abcdef\nghi\n... output truncated at 10 bytes\n... 1 more lines not shown", res.Output)
}

func TestJavaScriptLargeOutputIsBounded(t *testing.T) {
	res := runJS(t, `const s = "x".repeat(1e6); for (let i = 0; i < 200; i++) console.log(s);`)

	assert.False(t, res.Failed)
	assert.Less(t, len(res.Output), 64*1024+128)
	assert.Contains(t, res.Output, "... output truncated at 65536 bytes")
	assert.Contains(t, res.Output, "... 199 more lines not shown")
}

func TestJavaScriptFreshRuntime(t *testing.T) {
	js := NewJavaScript()
	_, err := js.Run(context.Background(), jsLang, "globalThis.leaked = 1;")
	require.NoError(t, err)

	res, err := js.Run(context.Background(), jsLang, "console.log(typeof leaked)")
	require.NoError(t, err)
	assert.Equal(t, "undefined", res.Output)
}

func TestJavaScriptNoHostBindings(t *testing.T) {
	res := runJS(t, "console.log(typeof require, typeof process)")

	assert.Equal(t, "undefined undefined", res.Output)
}
