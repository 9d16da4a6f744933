package agent

import (
	"strings"

	"github.com/faisca-ai/faisca/internal/util"
)

// Profile describes the persona configured for an agent. Every field is
// optional; SystemPrompt assembles only the populated sections.
type Profile struct {
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	Role         string `json:"role,omitempty" yaml:"role,omitempty"`
	Objective    string `json:"objective,omitempty" yaml:"objective,omitempty"`
	Policies     string `json:"policies,omitempty" yaml:"policies,omitempty"`
	Task         string `json:"task,omitempty" yaml:"task,omitempty"`
	Goal         string `json:"goal,omitempty" yaml:"goal,omitempty"`
	Audience     string `json:"audience,omitempty" yaml:"audience,omitempty"`
	Restrictions string `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
}

// SystemPrompt builds the system instructions handed to the completion
// backend from the populated profile sections.
func (p *Profile) SystemPrompt() string {
	if p == nil {
		return ""
	}

	var sb strings.Builder

	section := func(label, text string) {
		if text == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if label != "" {
			sb.WriteString(label)
			sb.WriteString(": ")
		}
		sb.WriteString(text)
	}

	if p.Name != "" {
		section("", "You are "+p.Name+".")
	}
	section("Role", p.Role)
	section("Objective", p.Objective)
	section("Policies", p.Policies)
	section("Task", p.Task)
	section("Goal", p.Goal)
	section("Audience", p.Audience)
	section("Restrictions", p.Restrictions)

	return sb.String()
}

// RenderSystemPrompt builds the system instructions and resolves any
// {{template}} markers against the provided state.
func (p *Profile) RenderSystemPrompt(state map[string]any) (string, error) {
	return util.RenderTemplate(p.SystemPrompt(), state)
}
