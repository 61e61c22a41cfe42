package schema

import (
	"regexp"
	"sort"
	"strings"
)

// Variable is one data-binding path a template references, with the category
// used to group spreadsheet columns.
type Variable struct {
	Key      string `json:"key"`
	Category string `json:"category"`
}

// PlaceholderPattern matches {{ path }} occurrences embedded in free text.
var PlaceholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// CollectVariables walks the tree and returns every variable path the
// template can bind: placeholders embedded in text and cell content, explicit
// cell bindings, and the synthetic hours/amount pair each label cell defines.
// The result is de-duplicated and sorted by category then key.
func CollectVariables(blocks []Block) []Variable {
	seen := map[string]Variable{}
	collectVariables(blocks, seen)
	out := make([]Variable, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func collectVariables(blocks []Block, seen map[string]Variable) {
	for _, b := range blocks {
		switch {
		case b.Text != nil:
			addPlaceholders(b.Text.Content, seen)
		case b.Table != nil:
			for _, row := range b.Table.Rows {
				for _, cell := range row {
					addPlaceholders(cell.Content, seen)
					if cell.Variable != "" {
						addVariable(cell.Variable, seen)
					}
					if cell.IsLabel && cell.LabelID != "" {
						addVariable(cell.LabelID+".hours", seen)
						addVariable(cell.LabelID+".amount", seen)
					}
				}
			}
		case b.Container != nil:
			collectVariables(b.Container.Children, seen)
		}
	}
}

func addPlaceholders(content string, seen map[string]Variable) {
	for _, m := range PlaceholderPattern.FindAllStringSubmatch(content, -1) {
		addVariable(m[1], seen)
	}
}

func addVariable(key string, seen map[string]Variable) {
	if _, ok := seen[key]; ok {
		return
	}
	category := "general"
	if i := strings.Index(key, "."); i > 0 {
		category = key[:i]
	}
	seen[key] = Variable{Key: key, Category: category}
}
