package engine

import (
	"github.com/slipforge/payslip-app/internal/schema"
)

// Apply returns a deep copy of blocks with every placeholder in text content
// and table cells replaced by its value from rec. The input tree is never
// mutated and the result shares no mutable state with it, so concurrent Apply
// calls for different records are safe without coordination. Unresolvable
// paths substitute as empty strings.
func Apply(blocks []schema.Block, rec Record) []schema.Block {
	out := schema.CloneBlocks(blocks)
	for i := range out {
		applyBlock(&out[i], rec)
	}
	return out
}

func applyBlock(b *schema.Block, rec Record) {
	switch {
	case b.Text != nil:
		b.Text.Content = Substitute(b.Text.Content, rec)
	case b.Table != nil:
		for i, row := range b.Table.Rows {
			for j, cell := range row {
				// An explicit binding wins over literal content.
				if cell.Variable != "" {
					v, _ := Resolve(rec, cell.Variable)
					b.Table.Rows[i][j].Content = v
					continue
				}
				b.Table.Rows[i][j].Content = Substitute(cell.Content, rec)
			}
		}
	case b.Container != nil:
		for i := range b.Container.Children {
			applyBlock(&b.Container.Children[i], rec)
		}
	}
}

// Substitute replaces every {{path}} occurrence in s with its resolved value,
// missing paths becoming empty strings.
func Substitute(s string, rec Record) string {
	if s == "" {
		return s
	}
	return schema.PlaceholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := schema.PlaceholderPattern.FindStringSubmatch(m)
		if len(sub) < 2 {
			return ""
		}
		v, _ := Resolve(rec, sub[1])
		return v
	})
}
