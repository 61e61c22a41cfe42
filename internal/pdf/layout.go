package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/slipforge/payslip-app/internal/schema"
)

const (
	defaultFontSize   = 10.0
	defaultLineHeight = 1.2
	defaultTextWidth  = 80.0 // mm, used when a text block has no explicit width
	defaultRowHeight  = 8.0  // mm per table row
)

// layout paints doc onto a single absolute-position page and returns the
// bytes. It runs synchronously; Engine.Render applies the time budget.
func layout(doc Document) ([]byte, error) {
	orient := "P"
	if doc.Orientation == schema.OrientationLandscape {
		orient = "L"
	}
	f := gofpdf.New(orient, "mm", paperName(doc.Paper), "")
	f.SetAutoPageBreak(false, 0)
	f.AddPage()
	p := &painter{
		pdf:    f,
		tr:     f.UnicodeTranslatorFromDescriptor(""),
		styles: doc.Styles,
	}
	for _, b := range doc.Blocks {
		p.paint(b, 0, 0)
	}
	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func paperName(p schema.PaperSize) string {
	switch p {
	case schema.PaperLetter:
		return "Letter"
	case schema.PaperLegal:
		return "Legal"
	default:
		return "A4"
	}
}

type painter struct {
	pdf      *gofpdf.Fpdf
	tr       func(string) string
	styles   schema.GlobalStyles
	imageSeq int
}

// paint draws one block at its style position offset by the parent container
// origin, recursing into containers.
func (p *painter) paint(b schema.Block, dx, dy float64) {
	x := b.Style.X + dx
	y := b.Style.Y + dy
	switch {
	case b.Text != nil:
		p.paintText(b, x, y)
	case b.Table != nil:
		p.paintTable(b, x, y)
	case b.Image != nil:
		p.paintImage(b, x, y)
	case b.Container != nil:
		for _, child := range b.Container.Children {
			p.paint(child, x, y)
		}
	case b.Divider != nil:
		p.paintDivider(b, x, y)
	case b.Spacer != nil:
		// Reserves space in the builder only; nothing to draw.
	}
}

func (p *painter) paintText(b schema.Block, x, y float64) {
	st := b.Style
	size := st.FontSize
	if size == 0 {
		size = p.baseFontSize()
	}
	p.setFont(st, size)
	p.setTextColor(st.Color, p.styles.PrimaryColor)
	w := st.Width
	if w == 0 {
		w = defaultTextWidth
	}
	lh := st.LineHeight
	if lh == 0 {
		lh = defaultLineHeight
	}
	if st.Background != "" {
		r, g, bb := parseHexColor(st.Background, 255, 255, 255)
		p.pdf.SetFillColor(r, g, bb)
		p.pdf.Rect(x, y, w, maxf(st.Height, size*lh*mmPerPt), "F")
	}
	p.pdf.SetXY(x, y)
	p.pdf.MultiCell(w, size*lh*mmPerPt, p.tr(b.Text.Content), "", alignCode(st.Align), false)
}

func (p *painter) paintTable(b schema.Block, x, y float64) {
	st := b.Style
	cols := tableColumns(b.Table)
	if cols == 0 {
		return
	}
	width := st.Width
	if width == 0 {
		width = 160
	}
	colW := width / float64(cols)
	size := st.FontSize
	if size == 0 {
		size = p.baseFontSize()
	}
	border := "1"
	if st.BorderWidth == 0 && st.BorderColor == "" {
		border = ""
	}
	if st.BorderWidth > 0 {
		p.pdf.SetLineWidth(st.BorderWidth)
	}
	r, g, bb := parseHexColor(st.BorderColor, 120, 120, 120)
	p.pdf.SetDrawColor(r, g, bb)

	rowY := y
	for _, row := range b.Table.Rows {
		cellX := x
		for _, cell := range row {
			span := cell.ColSpan
			if span < 1 {
				span = 1
			}
			w := colW * float64(span)
			cellStyle := st
			fill := false
			if cell.Style != nil {
				if cell.Style.Align != "" {
					cellStyle.Align = cell.Style.Align
				}
				if cell.Style.Color != "" {
					cellStyle.Color = cell.Style.Color
				}
				if cell.Style.Background != "" {
					br, bg2, bb2 := parseHexColor(cell.Style.Background, 245, 245, 245)
					p.pdf.SetFillColor(br, bg2, bb2)
					fill = true
				}
			}
			bold := cell.IsLabel || (cell.Style != nil && cell.Style.Bold)
			if bold {
				cellStyle.FontWeight = "bold"
			}
			p.setFont(cellStyle, size)
			p.setTextColor(cellStyle.Color, p.styles.PrimaryColor)
			p.pdf.SetXY(cellX, rowY)
			p.pdf.CellFormat(w, defaultRowHeight, p.tr(cell.Content), border, 0, alignCode(cellStyle.Align), fill, 0, "")
			cellX += w
		}
		rowY += defaultRowHeight
	}
}

func (p *painter) paintImage(b schema.Block, x, y float64) {
	src := b.Image.Src
	data, imageType, ok := decodeDataURI(src)
	if !ok {
		// Blank slot: either the source was cleared by the materializer or
		// was never inlined. The renderer does no network access.
		return
	}
	p.imageSeq++
	name := fmt.Sprintf("img-%d-%s", p.imageSeq, b.ID)
	opts := gofpdf.ImageOptions{ImageType: imageType}
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if p.pdf.Err() {
		// Undecodable payload degrades to a blank slot, matching fetch
		// failure behavior.
		p.pdf.ClearError()
		return
	}
	p.pdf.ImageOptions(name, x, y, b.Style.Width, b.Style.Height, false, opts, 0, "")
}

func (p *painter) paintDivider(b schema.Block, x, y float64) {
	w := b.Style.Width
	if w == 0 {
		w = 160
	}
	thickness := 0.3
	dashed := false
	if b.Divider != nil {
		if b.Divider.Thickness > 0 {
			thickness = b.Divider.Thickness
		}
		dashed = b.Divider.LineStyle == "dashed"
	}
	r, g, bb := parseHexColor(b.Style.Color, 60, 60, 60)
	p.pdf.SetDrawColor(r, g, bb)
	p.pdf.SetLineWidth(thickness)
	if dashed {
		p.pdf.SetDashPattern([]float64{2, 1.5}, 0)
		defer p.pdf.SetDashPattern([]float64{}, 0)
	}
	p.pdf.Line(x, y, x+w, y)
}

func (p *painter) baseFontSize() float64 {
	if p.styles.FontSize > 0 {
		return p.styles.FontSize
	}
	return defaultFontSize
}

func (p *painter) setFont(st schema.Style, size float64) {
	style := ""
	if st.FontWeight == "bold" {
		style += "B"
	}
	if st.FontStyle == "italic" {
		style += "I"
	}
	p.pdf.SetFont(coreFont(p.styles.FontFamily), style, size)
}

func (p *painter) setTextColor(color, fallback string) {
	c := color
	if c == "" {
		c = fallback
	}
	r, g, b := parseHexColor(c, 0, 0, 0)
	p.pdf.SetTextColor(r, g, b)
}

// mmPerPt converts a font size in points to a line height in millimeters.
const mmPerPt = 0.3528

// coreFont maps a template font family onto one of the built-in PDF core
// fonts; anything unrecognized falls back to Helvetica.
func coreFont(family string) string {
	switch strings.ToLower(family) {
	case "times", "times new roman", "serif", "georgia":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	default:
		return "Helvetica"
	}
}

func alignCode(align string) string {
	switch align {
	case "center":
		return "C"
	case "right":
		return "R"
	default:
		return "L"
	}
}

// decodeDataURI splits a data:<mime>;base64,<payload> source into raw bytes
// and the gofpdf image type name.
func decodeDataURI(src string) (data []byte, imageType string, ok bool) {
	if !strings.HasPrefix(src, "data:") {
		return nil, "", false
	}
	comma := strings.Index(src, ",")
	if comma < 0 {
		return nil, "", false
	}
	meta := src[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", false
	}
	mime := strings.TrimSuffix(meta, ";base64")
	switch mime {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg", "image/jpg":
		imageType = "JPG"
	case "image/gif":
		imageType = "GIF"
	default:
		return nil, "", false
	}
	raw, err := base64.StdEncoding.DecodeString(src[comma+1:])
	if err != nil {
		return nil, "", false
	}
	return raw, imageType, true
}

func parseHexColor(s string, dr, dg, db int) (r, g, b int) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return dr, dg, db
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return dr, dg, db
	}
	return rv, gv, bv
}

func tableColumns(t *schema.TableProps) int {
	cols := 0
	for _, row := range t.Rows {
		n := 0
		for _, cell := range row {
			span := cell.ColSpan
			if span < 1 {
				span = 1
			}
			n += span
		}
		if n > cols {
			cols = n
		}
	}
	return cols
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
