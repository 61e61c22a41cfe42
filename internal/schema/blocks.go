// Package schema defines the block tree that makes up a payslip template:
// typed blocks with absolute positions on a paper canvas, the global document
// styles, and the paper geometry used at render time.
package schema

import (
	"encoding/json"
	"fmt"
)

// BlockType discriminates the block union. The set is closed; unknown values
// are rejected at decode time.
type BlockType string

const (
	BlockText      BlockType = "text"
	BlockTable     BlockType = "table"
	BlockImage     BlockType = "image"
	BlockContainer BlockType = "container"
	BlockDivider   BlockType = "divider"
	BlockSpacer    BlockType = "spacer"
)

// Block is one node of the template tree. Exactly one of the typed payload
// pointers matching Type is non-nil; the builder UI serializes the payload
// under a single "properties" key, which the custom JSON methods preserve.
type Block struct {
	ID    string
	Type  BlockType
	Style Style

	Text      *TextProps
	Table     *TableProps
	Image     *ImageProps
	Container *ContainerProps
	Divider   *DividerProps
	Spacer    *SpacerProps
}

// TextProps holds free text; Content may embed {{namespace.key}} placeholders.
type TextProps struct {
	Content string `json:"content"`
}

// TableProps is a grid of cells. Row zero is not special: header styling is a
// per-cell concern.
type TableProps struct {
	Rows [][]TableCell `json:"rows"`
}

// TableCell is a single table slot. Content may be literal text or embed
// placeholders. Variable, when set, binds the cell to a path directly (no
// delimiters) and wins over Content. A label cell (IsLabel + LabelID) defines
// the synthetic paths "<labelId>.hours" and "<labelId>.amount" that sibling
// cells may bind to.
type TableCell struct {
	Content  string     `json:"content"`
	Variable string     `json:"variable,omitempty"`
	IsLabel  bool       `json:"isLabel,omitempty"`
	LabelID  string     `json:"labelId,omitempty"`
	ColSpan  int        `json:"colSpan,omitempty"`
	RowSpan  int        `json:"rowSpan,omitempty"`
	Style    *CellStyle `json:"style,omitempty"`
}

// CellStyle overrides the table block style for one cell.
type CellStyle struct {
	Bold       bool   `json:"bold,omitempty"`
	Align      string `json:"align,omitempty"` // left|center|right
	Color      string `json:"color,omitempty"`
	Background string `json:"background,omitempty"`
}

// ImageProps references an image either by http(s) URL (pre-materialization)
// or by an inline data URI (post-materialization). An empty Src renders as a
// blank slot.
type ImageProps struct {
	Src string `json:"src"`
	Fit string `json:"fit,omitempty"` // contain|cover|fill
}

// ContainerProps groups child blocks. Child coordinates are relative to the
// container origin. Children are owned exclusively by their container.
type ContainerProps struct {
	Direction string  `json:"direction,omitempty"` // row|column
	Gap       float64 `json:"gap,omitempty"`
	Children  []Block `json:"children"`
}

// DividerProps draws a horizontal rule across the block width.
type DividerProps struct {
	Thickness float64 `json:"thickness,omitempty"`
	LineStyle string  `json:"style,omitempty"` // solid|dashed
}

// SpacerProps reserves vertical space.
type SpacerProps struct {
	Height float64 `json:"height,omitempty"`
}

// Style carries absolute position and size in millimeters plus optional
// typography and decoration. Zero values mean "use the default".
type Style struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	FontSize    float64 `json:"fontSize,omitempty"`
	FontWeight  string  `json:"fontWeight,omitempty"` // normal|bold
	FontStyle   string  `json:"fontStyle,omitempty"`  // normal|italic
	Align       string  `json:"align,omitempty"`      // left|center|right
	Color       string  `json:"color,omitempty"`      // #rrggbb
	Background  string  `json:"background,omitempty"`
	BorderWidth float64 `json:"borderWidth,omitempty"`
	BorderColor string  `json:"borderColor,omitempty"`
	LineHeight  float64 `json:"lineHeight,omitempty"` // multiplier, default 1.2
}

// GlobalStyles applies document-wide defaults. One instance per template.
type GlobalStyles struct {
	FontFamily     string  `json:"fontFamily,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty"`
	PrimaryColor   string  `json:"primaryColor,omitempty"`
	SecondaryColor string  `json:"secondaryColor,omitempty"`
}

// blockJSON is the wire shape shared by Marshal/Unmarshal.
type blockJSON struct {
	ID         string          `json:"id"`
	Type       BlockType       `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
	Style      Style           `json:"style"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	var props any
	switch b.Type {
	case BlockText:
		props = b.Text
	case BlockTable:
		props = b.Table
	case BlockImage:
		props = b.Image
	case BlockContainer:
		props = b.Container
	case BlockDivider:
		props = b.Divider
	case BlockSpacer:
		props = b.Spacer
	default:
		return nil, fmt.Errorf("schema: unknown block type %q", b.Type)
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blockJSON{ID: b.ID, Type: b.Type, Properties: raw, Style: b.Style})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var wire blockJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := Block{ID: wire.ID, Type: wire.Type, Style: wire.Style}
	props := wire.Properties
	if props == nil {
		props = json.RawMessage("{}")
	}
	var err error
	switch wire.Type {
	case BlockText:
		out.Text = &TextProps{}
		err = json.Unmarshal(props, out.Text)
	case BlockTable:
		out.Table = &TableProps{}
		err = json.Unmarshal(props, out.Table)
	case BlockImage:
		out.Image = &ImageProps{}
		err = json.Unmarshal(props, out.Image)
	case BlockContainer:
		out.Container = &ContainerProps{}
		err = json.Unmarshal(props, out.Container)
	case BlockDivider:
		out.Divider = &DividerProps{}
		err = json.Unmarshal(props, out.Divider)
	case BlockSpacer:
		out.Spacer = &SpacerProps{}
		err = json.Unmarshal(props, out.Spacer)
	default:
		return fmt.Errorf("schema: unknown block type %q", wire.Type)
	}
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (b Block) Clone() Block {
	out := b
	switch {
	case b.Text != nil:
		t := *b.Text
		out.Text = &t
	case b.Table != nil:
		rows := make([][]TableCell, len(b.Table.Rows))
		for i, row := range b.Table.Rows {
			cells := make([]TableCell, len(row))
			for j, c := range row {
				cc := c
				if c.Style != nil {
					s := *c.Style
					cc.Style = &s
				}
				cells[j] = cc
			}
			rows[i] = cells
		}
		out.Table = &TableProps{Rows: rows}
	case b.Image != nil:
		img := *b.Image
		out.Image = &img
	case b.Container != nil:
		out.Container = &ContainerProps{
			Direction: b.Container.Direction,
			Gap:       b.Container.Gap,
			Children:  CloneBlocks(b.Container.Children),
		}
	case b.Divider != nil:
		d := *b.Divider
		out.Divider = &d
	case b.Spacer != nil:
		s := *b.Spacer
		out.Spacer = &s
	}
	return out
}

// CloneBlocks deep-copies a block list.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

// CountBlocks counts every node in the tree, containers and children included.
func CountBlocks(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		n++
		if b.Container != nil {
			n += CountBlocks(b.Container.Children)
		}
	}
	return n
}
