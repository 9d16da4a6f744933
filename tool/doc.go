// Package tool implements custom tool definitions and their execution: HTTP
// request tools, sandboxed code tools, template variable substitution,
// response remapping and single-result chaining.
//
// A Definition is pure data (typically loaded from the configuration store);
// the Executor interprets it. Placeholders in request templates and code
// sources are resolved by Substitute against four sources with fixed
// precedence: tool variables (var.KEY), call arguments (plain name), the
// prior chained result (result.path) and process configuration (env.NAME).
package tool
