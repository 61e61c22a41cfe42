// Package assets inlines remote image references so the renderer never needs
// network access.
package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipforge/payslip-app/internal/schema"
)

const (
	// DefaultFetchTimeout bounds each individual image download.
	DefaultFetchTimeout = 10 * time.Second
	// maxImageBytes caps a single downloaded image.
	maxImageBytes = 8 << 20
)

// Materializer downloads http(s) image sources and replaces them with inline
// data URIs. Fetch failures clear the source so the slot renders blank; they
// never fail the document.
type Materializer struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// New builds a Materializer with the given per-image timeout; zero means
// DefaultFetchTimeout.
func New(timeout time.Duration, log zerolog.Logger) *Materializer {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Materializer{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log,
	}
}

// Materialize returns a deep copy of blocks with every remote image inlined.
// Sources that are not http(s) URLs pass through untouched, which makes the
// operation idempotent. The caller's ctx bounds the whole pass.
func (m *Materializer) Materialize(ctx context.Context, blocks []schema.Block) []schema.Block {
	out := schema.CloneBlocks(blocks)
	m.materialize(ctx, out)
	return out
}

func (m *Materializer) materialize(ctx context.Context, blocks []schema.Block) {
	for i := range blocks {
		b := &blocks[i]
		switch {
		case b.Image != nil:
			src := b.Image.Src
			if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
				continue
			}
			inline, err := m.fetch(ctx, src)
			if err != nil {
				m.log.Warn().Str("action", "asset_fetch").Str("block", b.ID).Str("src", src).
					Err(err).Msg("image fetch failed, rendering blank")
				b.Image.Src = ""
				continue
			}
			b.Image.Src = inline
		case b.Container != nil:
			m.materialize(ctx, b.Container.Children)
		}
	}
}

func (m *Materializer) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
