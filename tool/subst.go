package tool

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/faisca-ai/faisca/core"
	"github.com/tidwall/gjson"
)

// EnvLookup resolves env.NAME placeholders against process-wide
// configuration. It is the lowest-precedence substitution source.
type EnvLookup func(key string) (string, bool)

// placeholderRe matches {token} where token is an identifier optionally
// extended with dotted segments. Braces around anything else (JSON bodies,
// format strings) fall outside the grammar and pass through untouched.
var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_.]*)\}`)

// Substitute resolves every placeholder in template in a single pass.
//
// Sources, highest precedence first:
//
//	var.KEY     tool variable; absence fails the whole substitution
//	name        tool variable, then call argument
//	result.path dotted-path lookup into the prior chained result
//	env.NAME    process configuration, last resort for unmodeled secrets
//
// Resolved values are not re-scanned, so a value that happens to contain
// brace-like text cannot trigger further substitution. Unresolvable
// placeholders other than var.* stay in place.
func Substitute(template string, callArgs map[string]any, priorResult any, vars []Variable, env EnvLookup) (string, error) {
	if !strings.Contains(template, "{") {
		return template, nil
	}

	varValues := make(map[string]string, len(vars))
	for _, v := range vars {
		varValues[v.Key] = v.Value
	}

	var missing *core.InvocationError

	resolved := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		token := match[1 : len(match)-1]

		switch {
		case strings.HasPrefix(token, "var."):
			key := strings.TrimPrefix(token, "var.")
			if val, ok := varValues[key]; ok {
				return val
			}
			if missing == nil {
				missing = core.NewInvocationError(core.ErrMissingVariable, "tool variable %q is not defined", key)
			}
			return match
		case strings.HasPrefix(token, "result."):
			path := strings.TrimPrefix(token, "result.")
			if val, ok := lookupResultPath(priorResult, path); ok {
				return val
			}
			return match
		case strings.HasPrefix(token, "env."):
			if env != nil {
				if val, ok := env(strings.TrimPrefix(token, "env.")); ok {
					return val
				}
			}
			return match
		default:
			if val, ok := varValues[token]; ok {
				return val
			}
			if val, ok := callArgs[token]; ok {
				return formatValue(val)
			}
			return match
		}
	})

	if missing != nil {
		return "", missing
	}

	return resolved, nil
}

// lookupResultPath extracts a dotted path from the prior chained result.
func lookupResultPath(prior any, path string) (string, bool) {
	if prior == nil {
		return "", false
	}

	var doc []byte

	if s, ok := prior.(string); ok && gjson.Valid(s) {
		doc = []byte(s)
	} else {
		raw, err := json.Marshal(prior)
		if err != nil {
			return "", false
		}
		doc = raw
	}

	res := gjson.GetBytes(doc, path)
	if !res.Exists() {
		return "", false
	}

	return res.String(), true
}

// formatValue renders a call argument as template text. Strings pass
// through; everything else uses its JSON encoding.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(raw)
	}
}
