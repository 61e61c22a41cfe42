// Package pdf renders a concrete block tree to PDF bytes. The layout engine
// (gofpdf) is wrapped behind the Renderer interface and a wall-clock budget
// so a pathological layout cannot hang the calling request.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipforge/payslip-app/internal/schema"
)

// DefaultRenderTimeout bounds one document render.
const DefaultRenderTimeout = 30 * time.Second

var (
	// ErrRenderTimeout marks a render that exceeded its time budget, kept
	// distinct from ErrRenderFailed so callers can tell "too slow" apart
	// from "broken input".
	ErrRenderTimeout = errors.New("pdf: render timed out")
	// ErrRenderFailed marks input the layout engine rejected.
	ErrRenderFailed = errors.New("pdf: render failed")
)

// Document is the fully-resolved input contract: substituted blocks,
// materialized images, global styles and page geometry.
type Document struct {
	Blocks      []schema.Block
	Styles      schema.GlobalStyles
	Paper       schema.PaperSize
	Orientation schema.Orientation
}

// Renderer produces document bytes from a concrete block tree.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// Engine is the gofpdf-backed Renderer.
type Engine struct {
	timeout time.Duration
	log     zerolog.Logger
}

// NewEngine builds an Engine with the given render budget; zero means
// DefaultRenderTimeout.
func NewEngine(timeout time.Duration, log zerolog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &Engine{timeout: timeout, log: log}
}

type renderResult struct {
	data []byte
	err  error
}

// Render lays out doc and returns the PDF bytes. The render runs under
// e.timeout (and the caller's ctx); on expiry the result is ErrRenderTimeout.
func (e *Engine) Render(ctx context.Context, doc Document) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ch := make(chan renderResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- renderResult{err: fmt.Errorf("%w: layout panic: %v", ErrRenderFailed, r)}
			}
		}()
		data, err := layout(doc)
		ch <- renderResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		e.log.Error().Str("action", "render").
			Int("blocks", schema.CountBlocks(doc.Blocks)).
			Str("paper", string(doc.Paper)).
			Str("orientation", string(doc.Orientation)).
			Msg("render exceeded time budget")
		return nil, ErrRenderTimeout
	case res := <-ch:
		if res.err != nil {
			e.log.Error().Str("action", "render").
				Int("blocks", schema.CountBlocks(doc.Blocks)).
				Str("paper", string(doc.Paper)).
				Str("orientation", string(doc.Orientation)).
				Err(res.err).Msg("render failed")
			if !errors.Is(res.err, ErrRenderFailed) {
				res.err = fmt.Errorf("%w: %v", ErrRenderFailed, res.err)
			}
			return nil, res.err
		}
		return res.data, nil
	}
}
