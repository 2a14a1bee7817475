package runner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

const unserializable = "Unserializable object"

var consoleLevels = []string{"log", "info", "warn", "error", "debug"}

// console captures calls to console.<level> inside a goja runtime.
// Captured text is bounded by maxLines and maxBytes.
type console struct {
	stringify goja.Callable
	lines     []string
	maxLines  int
	maxBytes  int
	bytes     int
	truncated bool
	dropped   int
	logger    *slog.Logger
}

func installConsole(vm *goja.Runtime, maxLines, maxBytes int, logger *slog.Logger) (*console, error) {
	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return nil, fmt.Errorf("JSON.stringify is not callable")
	}
	c := &console{
		stringify: stringify,
		maxLines:  maxLines,
		maxBytes:  maxBytes,
		logger:    logger,
	}

	obj := vm.NewObject()
	for _, level := range consoleLevels {
		if err := obj.Set(level, c.method(level)); err != nil {
			return nil, fmt.Errorf("bind console.%s: %w", level, err)
		}
	}
	if err := vm.Set("console", obj); err != nil {
		return nil, fmt.Errorf("bind console: %w", err)
	}
	return c, nil
}

func (c *console) method(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if c.full() {
			c.dropped++
			return goja.Undefined()
		}
		msg := c.format(call.Arguments)
		line := msg
		if level != "log" {
			line = strings.ToUpper(level) + ": " + msg
		}
		c.append(line)
		c.logger.Debug("JavaScript console", "level", level, "message", msg)
		return goja.Undefined()
	}
}

func (c *console) full() bool {
	return c.truncated || (c.maxLines > 0 && len(c.lines) >= c.maxLines)
}

func (c *console) append(line string) {
	if c.full() {
		c.dropped++
		return
	}
	if c.maxBytes > 0 {
		if left := c.maxBytes - c.bytes; len(line) > left {
			line = strings.ToValidUTF8(line[:left], "")
			c.truncated = true
		}
		// Count the joining newline too.
		c.bytes += len(line) + 1
	}
	c.lines = append(c.lines, line)
}

// Lines returns the captured lines plus markers for anything cut by the caps.
func (c *console) Lines() []string {
	if c.dropped == 0 && !c.truncated {
		return c.lines
	}
	out := make([]string, len(c.lines), len(c.lines)+2)
	copy(out, c.lines)
	if c.truncated {
		out = append(out, fmt.Sprintf("... output truncated at %d bytes", c.maxBytes))
	}
	if c.dropped > 0 {
		out = append(out, fmt.Sprintf("... %d more lines not shown", c.dropped))
	}
	return out
}

func (c *console) format(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = c.formatArg(arg)
	}
	return strings.Join(parts, " ")
}

// formatArg renders objects with JSON.stringify and everything else with String().
func (c *console) formatArg(v goja.Value) (s string) {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFn := goja.AssertFunction(obj); isFn {
		return safeString(obj)
	}

	defer func() {
		if r := recover(); r != nil {
			s = unserializable
		}
	}()
	out, err := c.stringify(goja.Undefined(), obj)
	if err != nil {
		return unserializable
	}
	if out == nil || goja.IsUndefined(out) {
		return ""
	}
	return out.String()
}

// safeString converts a value without letting a throwing toString escape.
func safeString(v goja.Value) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = unserializable
		}
	}()
	return v.String()
}
