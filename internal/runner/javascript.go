package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

const noStack = "No stack available"

// JavaScript executes code in an isolated goja runtime.
// Each run gets a fresh runtime with nothing bound but console.
type JavaScript struct {
	cfg config
}

// NewJavaScript creates a JavaScript runner.
func NewJavaScript(opts ...Option) *JavaScript {
	return &JavaScript{cfg: newConfig(opts)}
}

// Name implements Runner.
func (j *JavaScript) Name() string { return "goja" }

// Run implements Runner.
func (j *JavaScript) Run(ctx context.Context, _ domain.Language, code string) (Result, error) {
	return j.runBody(ctx, "JavaScript", code)
}

// runBody executes body as the contents of a function so top-level return works.
// label names the language in the generated output.
func (j *JavaScript) runBody(ctx context.Context, label, body string) (Result, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(j.cfg.maxCallStack)

	con, err := installConsole(vm, j.cfg.maxLines, j.cfg.maxOutput, j.cfg.logger)
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, j.cfg.timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("execution timeout")
		case <-done:
		}
	}()

	// The opening line is joined with the body so error line numbers match the editor.
	val, runErr := vm.RunString("(function() {" + body + "\n})()")
	close(done)

	if runErr != nil {
		message, stack := j.describe(vm, runErr)
		lines := append(con.Lines(), "EXCEPTION: "+message)
		stackText := stack
		if stackText == "" {
			stackText = noStack
		}
		description := stack
		if description == "" {
			description = "Error during " + label + " execution."
		}
		return Result{
			Output: fmt.Sprintf("Error executing %s:\n%s\nStack:\n%s\n\nCaptured Logs:\n%s",
				label, message, stackText, strings.Join(lines, "\n")),
			ErrorMessage:     message,
			ErrorDescription: description,
			Failed:           true,
			Live:             true,
		}, nil
	}

	lines := con.Lines()
	if val != nil && !goja.IsUndefined(val) {
		lines = append(lines, "Return value: "+safeString(val))
	}
	output := strings.Join(lines, "\n")
	if output == "" {
		output = label + " code executed successfully. No output logged to console."
	}
	return Result{Output: output, Live: true}, nil
}

// describe extracts a message and stack trace from a goja error.
func (j *JavaScript) describe(vm *goja.Runtime, err error) (message, stack string) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Sprintf("Execution timed out after %s", j.cfg.timeout), ""
	}

	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Error(), ""
	}

	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return err.Error(), ""
	}

	val := ex.Value()
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return safeString(vm.ToValue(val)), ex.String()
	}
	obj := val.ToObject(vm)
	message = safeString(val)
	if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
		message = safeString(m)
	}
	if s := obj.Get("stack"); s != nil && !goja.IsUndefined(s) && s.String() != "" {
		stack = s.String()
	} else {
		stack = ex.String()
	}
	return message, stack
}
