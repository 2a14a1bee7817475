package domain

import "fmt"

// JavaScript is the language id of the in-process JS runner.
const JavaScript = "javascript"

// SandboxSpec describes how to run a language inside a throwaway container.
type SandboxSpec struct {
	Image   string   `yaml:"image" json:"image"`
	Command []string `yaml:"command" json:"command"`
}

// Language is one entry of the editor's language catalog. Interpreter marks
// languages that have an opt-in in-process runner.
type Language struct {
	ID          string       `yaml:"id" json:"id"`
	Label       string       `yaml:"label" json:"label"`
	Live        bool         `yaml:"live" json:"live"`
	Interpreter bool         `yaml:"interpreter" json:"interpreter,omitempty"`
	DefaultCode string       `yaml:"default_code" json:"default_code"`
	Sandbox     *SandboxSpec `yaml:"sandbox,omitempty" json:"sandbox,omitempty"`
}

// Executes reports whether the language runs for real given which opt-in
// runners are enabled. Everything else is simulated.
func (l Language) Executes(interpreters, sandbox bool) bool {
	return l.Live || (interpreters && l.Interpreter) || (sandbox && l.Sandbox != nil)
}

// Placeholder returns the editor placeholder text for the language.
func (l Language) Placeholder() string {
	if l.ID == JavaScript {
		return fmt.Sprintf("Enter your %s code here... ", l.ID)
	}
	return fmt.Sprintf("Enter your %s code here... (Live execution for JS only)", l.ID)
}
