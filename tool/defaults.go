package tool

// DefaultDefinitions returns the built-in tools every agent can advertise:
// a clock and a calculator, both implemented as code tools so they exercise
// the same execution path as user-defined definitions.
func DefaultDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        "current_datetime",
			Description: "Returns the current date and time in UTC (RFC 3339).",
			Kind:        KindCode,
			Scope:       ScopePrincipal,
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Source: `now()`,
		},
		{
			Name:        "calculate",
			Description: "Evaluates an arithmetic expression and returns the numeric result.",
			Kind:        KindCode,
			Scope:       ScopePrincipal,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "Arithmetic expression, e.g. (2 + 3) * 4",
					},
				},
				"required": []string{"expression"},
			},
			Source: `
var expr = String(args.expression);
if (!/^[0-9+\-*/%(). eE]+$/.test(expr)) {
	throw new Error("expression contains unsupported characters");
}
eval(expr);
`,
		},
	}
}
