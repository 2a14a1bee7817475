package assistant

import (
	"fmt"
	"strings"
	"text/template"

	"google.golang.org/genai"
)

var explainErrorPrompt = template.Must(template.New("explainError").Parse(
	`You are an AI code debugger. Given the following code, programming language, and error message, explain in plain language what the error means and what in the code causes it.

Code:
` + "```" + `{{.Language}}
{{.Code}}
` + "```" + `

Error Message: {{.ErrorMessage}}

Explanation:`))

var suggestCodeFixPrompt = template.Must(template.New("suggestCodeFix").Parse(
	`You are an AI code debugger. Given the following code, programming language, and error description, suggest a code fix to address the issue and explain why the fix is appropriate.

Code:
` + "```" + `{{.Language}}
{{.Code}}
` + "```" + `

Error Description: {{.ErrorDescription}}

Suggested Fix:`))

var generateCodePrompt = template.Must(template.New("generateCode").Parse(
	`You are an expert software engineer who can generate code based on a description.

Generate code in the language: {{.Language}}.

Description: {{.Description}}

Here is the code:`))

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

func stringField(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

var explainErrorSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"explanation": stringField("A plain-language explanation of the error."),
	},
	Required: []string{"explanation"},
}

var suggestCodeFixSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"suggestedFix": stringField("The suggested code fix to address the identified error."),
		"explanation":  stringField("An explanation of why the suggested fix is appropriate."),
	},
	Required: []string{"suggestedFix", "explanation"},
}

var generateCodeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"code": stringField("The generated code based on the description."),
	},
	Required: []string{"code"},
}
