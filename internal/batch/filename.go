package batch

import (
	"fmt"
	"regexp"

	"github.com/slipforge/payslip-app/internal/engine"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// Filename candidate paths, checked in priority order.
var (
	fullNamePaths  = []string{"employee.fullName", "employee.name", "fullName"}
	lastNamePaths  = []string{"employee.lastName", "lastName"}
	firstNamePaths = []string{"employee.firstName", "firstName"}
	idPaths        = []string{"employee.id", "employee.employeeId", "id"}
)

// DeriveFilename picks a per-record document name: full name first, then
// "last-first", then an ID field, then the positional fallback
// "record-{index+1}". The chosen value is sanitized to [A-Za-z0-9_-].
func DeriveFilename(rec engine.Record, index int) string {
	if v := firstValue(rec, fullNamePaths); v != "" {
		if s := sanitizeName(v); s != "" {
			return s
		}
	}
	last := firstValue(rec, lastNamePaths)
	first := firstValue(rec, firstNamePaths)
	if last != "" || first != "" {
		s := sanitizeName(last) + "-" + sanitizeName(first)
		if s != "-" {
			return s
		}
	}
	if v := firstValue(rec, idPaths); v != "" {
		if s := sanitizeName(v); s != "" {
			return s
		}
	}
	return fmt.Sprintf("record-%d", index+1)
}

func firstValue(rec engine.Record, paths []string) string {
	for _, p := range paths {
		if v, ok := engine.Resolve(rec, p); ok && v != "" {
			return v
		}
	}
	return ""
}

// sanitizeName keeps letters, digits, underscores and hyphens; spaces become
// hyphens so multi-word names stay readable.
func sanitizeName(s string) string {
	spaced := whitespaceRuns.ReplaceAllString(s, "-")
	return unsafeNameChars.ReplaceAllString(spaced, "")
}
