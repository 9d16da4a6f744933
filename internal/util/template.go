package util

import (
	"fmt"
	"strings"
	"text/template"
)

// promptFuncs are the helpers available inside prompt templates. Prompts are
// plain text fed to a completion backend, so values must land verbatim:
// text/template, never html/template, or state like "R$ 10 < R$ 20" would
// reach the model entity-escaped.
var promptFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"default": func(fallback, val any) any {
		if val == nil || val == "" {
			return fallback
		}
		return val
	},
	"join": func(sep string, items []any) string {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, sep)
	},
}

// RenderTemplate expands {{.key}} references in a prompt fragment against
// the turn's state map. Fragments without template markers are returned
// unchanged without parsing.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Funcs(promptFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, state); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}

	return sb.String(), nil
}
