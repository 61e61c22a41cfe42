package pdf

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipforge/payslip-app/internal/schema"
)

func sampleDoc() Document {
	return Document{
		Blocks: []schema.Block{
			{ID: "t1", Type: schema.BlockText,
				Text:  &schema.TextProps{Content: "Payslip for Jane Doe"},
				Style: schema.Style{X: 20, Y: 20, Width: 170, FontSize: 14, FontWeight: "bold"}},
			{ID: "d1", Type: schema.BlockDivider,
				Divider: &schema.DividerProps{Thickness: 0.5},
				Style:   schema.Style{X: 20, Y: 30, Width: 170}},
			{ID: "tbl", Type: schema.BlockTable,
				Table: &schema.TableProps{Rows: [][]schema.TableCell{
					{{Content: "Regular hours", IsLabel: true, LabelID: "regularHours"}, {Content: "1500"}},
					{{Content: "Total"}, {Content: "1500", Style: &schema.CellStyle{Bold: true, Align: "right"}}},
				}},
				Style: schema.Style{X: 20, Y: 40, Width: 170, BorderWidth: 0.2}},
		},
		Styles:      schema.GlobalStyles{FontFamily: "Helvetica", FontSize: 10, PrimaryColor: "#1a1a2e"},
		Paper:       schema.PaperA4,
		Orientation: schema.OrientationPortrait,
	}
}

func TestRenderProducesPDFBytes(t *testing.T) {
	e := NewEngine(10*time.Second, zerolog.Nop())
	data, err := e.Render(context.Background(), sampleDoc())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestRenderAllPaperSizesAndOrientations(t *testing.T) {
	e := NewEngine(10*time.Second, zerolog.Nop())
	for _, paper := range []schema.PaperSize{schema.PaperA4, schema.PaperLetter, schema.PaperLegal} {
		for _, orient := range []schema.Orientation{schema.OrientationPortrait, schema.OrientationLandscape} {
			doc := sampleDoc()
			doc.Paper = paper
			doc.Orientation = orient
			data, err := e.Render(context.Background(), doc)
			require.NoError(t, err, "%s/%s", paper, orient)
			assert.Equal(t, "%PDF-", string(data[:5]))
		}
	}
}

func TestRenderEmptyTreeStillProducesPage(t *testing.T) {
	e := NewEngine(10*time.Second, zerolog.Nop())
	data, err := e.Render(context.Background(), Document{
		Paper:       schema.PaperA4,
		Orientation: schema.OrientationPortrait,
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestRenderSkipsBlankAndRemoteImages(t *testing.T) {
	e := NewEngine(10*time.Second, zerolog.Nop())
	doc := Document{
		Blocks: []schema.Block{
			{ID: "i1", Type: schema.BlockImage, Image: &schema.ImageProps{Src: ""},
				Style: schema.Style{X: 10, Y: 10, Width: 40, Height: 20}},
			// Never materialized; the renderer must not attempt a fetch.
			{ID: "i2", Type: schema.BlockImage, Image: &schema.ImageProps{Src: "https://example.com/logo.png"},
				Style: schema.Style{X: 10, Y: 40, Width: 40, Height: 20}},
		},
		Paper:       schema.PaperA4,
		Orientation: schema.OrientationPortrait,
	}
	data, err := e.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestRenderTimeoutIsDistinct(t *testing.T) {
	// A tree large enough that layout cannot win the race against an
	// already-expired budget.
	doc := sampleDoc()
	for i := 0; i < 400; i++ {
		doc.Blocks = append(doc.Blocks, schema.Block{
			ID: fmt.Sprintf("x%d", i), Type: schema.BlockText,
			Text:  &schema.TextProps{Content: "filler content that takes some layout work to place"},
			Style: schema.Style{X: 10, Y: float64(i % 280), Width: 180},
		})
	}
	e := NewEngine(time.Nanosecond, zerolog.Nop())
	_, err := e.Render(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRenderTimeout))
	assert.False(t, errors.Is(err, ErrRenderFailed))
}
