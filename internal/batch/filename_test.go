package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slipforge/payslip-app/internal/engine"
)

func TestDeriveFilenamePriority(t *testing.T) {
	cases := []struct {
		name string
		rec  engine.Record
		want string
	}{
		{
			name: "full name wins over id",
			rec: engine.Record{
				"{{employee.fullName}}": "Jane Doe",
				"{{employee.id}}":       "E-042",
			},
			want: "Jane-Doe",
		},
		{
			name: "last plus first when no full name",
			rec: engine.Record{
				"{{employee.lastName}}":  "Doe",
				"{{employee.firstName}}": "Jane",
			},
			want: "Doe-Jane",
		},
		{
			name: "id when no names",
			rec:  engine.Record{"{{employee.id}}": "E-042"},
			want: "E-042",
		},
		{
			name: "positional fallback",
			rec:  engine.Record{"{{salary.base}}": "3000"},
			want: "record-8",
		},
		{
			name: "unsafe characters stripped",
			rec:  engine.Record{"{{employee.fullName}}": "Żaneta O'Neil / HR"},
			want: "aneta-ONeil--HR",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveFilename(tc.rec, 7))
		})
	}
}

func TestDeriveFilenamePlainKeys(t *testing.T) {
	// The single-send form posts plain dotted keys rather than delimited ones.
	rec := engine.Record{"employee.fullName": "Sam Smith"}
	assert.Equal(t, "Sam-Smith", DeriveFilename(rec, 0))
}

func TestDeriveFilenameOnlyLastName(t *testing.T) {
	rec := engine.Record{"{{employee.lastName}}": "Doe"}
	assert.Equal(t, "Doe-", DeriveFilename(rec, 0))
}
