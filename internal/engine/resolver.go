// Package engine resolves variable paths against data records and applies
// them to a block tree, producing the concrete per-record document the
// renderer consumes.
package engine

import (
	"strconv"
	"strings"
)

// Record maps variable paths to values for one employee/document. Keys are
// either literal delimited paths ("{{employee.fullName}}", the spreadsheet
// importer's form) or plain dotted paths; values are usually strings but
// nested maps are tolerated for dotted traversal.
type Record map[string]any

// Resolve looks up path (without delimiters) in rec. Resolution order: exact
// match on the delimited form, exact match on the plain form, then dotted
// traversal of nested maps. A missing or nil value resolves to ("", false);
// Resolve never errors and never returns a Go-formatted nil.
func Resolve(rec Record, path string) (string, bool) {
	if len(rec) == 0 || path == "" {
		return "", false
	}
	if v, ok := rec["{{"+path+"}}"]; ok {
		return stringify(v)
	}
	if v, ok := rec[path]; ok {
		return stringify(v)
	}
	if !strings.Contains(path, ".") {
		return "", false
	}
	var cur any = map[string]any(rec)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if rm, isRec := cur.(Record); isRec {
				m = map[string]any(rm)
			} else {
				return "", false
			}
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return "", false
		}
	}
	return stringify(cur)
}

// stringify renders a resolved value as cell/text content. Composite values
// substitute as blank rather than leaking a Go representation.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
