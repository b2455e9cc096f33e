package semantic

import (
	"strings"

	"github.com/panbanda/tombstone/pkg/syntax"
)

// argType is the inferred type name of a call argument; "" means unknown.
type argType = string

var typeAliases = map[string]string{
	"String":  "string",
	"Int16":   "short",
	"Int32":   "int",
	"Int64":   "long",
	"UInt32":  "uint",
	"UInt64":  "ulong",
	"Boolean": "bool",
	"Double":  "double",
	"Single":  "float",
	"Decimal": "decimal",
	"Char":    "char",
	"Byte":    "byte",
	"Object":  "object",
}

// Implicit numeric widenings that keep an overload applicable.
var widenings = map[string][]string{
	"byte":  {"short", "int", "long", "float", "double", "decimal"},
	"short": {"int", "long", "float", "double", "decimal"},
	"char":  {"int", "long", "float", "double", "decimal"},
	"int":   {"long", "float", "double", "decimal"},
	"long":  {"float", "double", "decimal"},
	"float": {"double"},
}

// normalizeTypeName reduces a written type to the simple name used as an
// index key: qualifiers, generic arguments and nullability are dropped.
// Arrays, pointers and tuples have no indexed members and yield "".
func normalizeTypeName(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "?")
	if text == "" || strings.HasSuffix(text, "]") || strings.HasSuffix(text, "*") || strings.HasPrefix(text, "(") {
		return ""
	}
	if i := strings.IndexByte(text, '<'); i >= 0 {
		text = text[:i]
	}
	if i := strings.LastIndex(text, "::"); i >= 0 {
		text = text[i+2:]
	}
	if i := strings.LastIndexByte(text, '.'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSpace(text)
	if alias, ok := typeAliases[text]; ok {
		return alias
	}
	return text
}

// pickOverload selects the member a call binds to. A nil args slice means a
// non-call access, which binds to the first member of the group. When the
// best-scoring overloads tie the call is left unresolved.
func pickOverload(found []member, args []argType) (member, bool) {
	if len(found) == 0 {
		return member{}, false
	}
	if args == nil {
		return found[0], true
	}

	applicable := applicableOverloads(found, len(args))
	switch len(applicable) {
	case 0:
		return member{}, false
	case 1:
		return applicable[0], true
	}

	best, bestScore, tied := applicable[0], scoreOverload(applicable[0], args), false
	for _, m := range applicable[1:] {
		switch s := scoreOverload(m, args); {
		case s > bestScore:
			best, bestScore, tied = m, s, false
		case s == bestScore:
			tied = true
		}
	}
	if tied {
		return member{}, false
	}
	return best, true
}

// applicableOverloads keeps the members a call with n arguments can bind to.
// Fields, properties and events always apply.
func applicableOverloads(found []member, n int) []member {
	var out []member
	for _, m := range found {
		if m.decl.Kind() != syntax.KindMethod || m.arity.Accepts(n) {
			out = append(out, m)
		}
	}
	return out
}

func scoreOverload(m member, args []argType) int {
	if m.decl.Kind() != syntax.KindMethod {
		return 0
	}
	score := 0
	if len(args) == m.arity.Total {
		score++
	}
	for i, a := range args {
		p := ""
		switch {
		case i < len(m.params):
			p = m.params[i]
		case m.arity.Variadic && len(m.params) > 0:
			p = m.params[len(m.params)-1]
		}
		if a == "" || p == "" {
			continue
		}
		switch {
		case p == a:
			score += 3
		case widens(a, p):
			score += 2
		case p == "object" || isTypeParameter(p):
			score++
		case a == "null":
			if !isValueType(p) {
				score++
			}
		default:
			score -= 3
		}
	}
	return score
}

func widens(from, to string) bool {
	for _, w := range widenings[from] {
		if w == to {
			return true
		}
	}
	return false
}

func isValueType(name string) bool {
	switch name {
	case "int", "long", "short", "byte", "uint", "ulong", "bool", "double", "float", "decimal", "char":
		return true
	}
	return false
}

// isTypeParameter treats short all-caps names and TFoo names as generic
// parameters.
func isTypeParameter(name string) bool {
	if name == "" {
		return false
	}
	if len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z' {
		return true
	}
	return len(name) > 1 && name[0] == 'T' && name[1] >= 'A' && name[1] <= 'Z'
}

// literalType maps literal node types to their C# type.
func literalType(nodeType string) string {
	switch nodeType {
	case "string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression":
		return "string"
	case "integer_literal":
		return "int"
	case "real_literal":
		return "double"
	case "boolean_literal":
		return "bool"
	case "character_literal":
		return "char"
	case "null_literal":
		return "null"
	}
	return ""
}
