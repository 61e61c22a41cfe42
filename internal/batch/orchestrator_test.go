package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipforge/payslip-app/internal/assets"
	"github.com/slipforge/payslip-app/internal/engine"
	"github.com/slipforge/payslip-app/internal/pdf"
	"github.com/slipforge/payslip-app/internal/schema"
)

// stubRenderer returns canned PDF-looking bytes, or an error when failWhen
// matches the substituted document.
type stubRenderer struct {
	calls    atomic.Int32
	failWhen func(doc pdf.Document) bool
}

func (s *stubRenderer) Render(_ context.Context, doc pdf.Document) ([]byte, error) {
	s.calls.Add(1)
	if s.failWhen != nil && s.failWhen(doc) {
		return nil, fmt.Errorf("%w: stub rejection", pdf.ErrRenderFailed)
	}
	content := ""
	if len(doc.Blocks) > 0 && doc.Blocks[0].Text != nil {
		content = doc.Blocks[0].Text.Content
	}
	return []byte("%PDF-1.4 " + content), nil
}

func testOrchestrator(r pdf.Renderer, audit AuditFunc) *Orchestrator {
	return New(r, assets.New(time.Second, zerolog.Nop()), 3, audit, zerolog.Nop())
}

func textBlocks() []schema.Block {
	return []schema.Block{{
		ID:   "t",
		Type: schema.BlockText,
		Text: &schema.TextProps{Content: "Payslip {{employee.fullName}}"},
	}}
}

func records(n int) []engine.Record {
	out := make([]engine.Record, n)
	for i := range out {
		out[i] = engine.Record{"{{employee.fullName}}": fmt.Sprintf("Employee %d", i)}
	}
	return out
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = buf.Bytes()
	}
	return out
}

func TestGenerateArchiveCompleteness(t *testing.T) {
	o := testOrchestrator(&stubRenderer{}, nil)
	res, err := o.Generate(context.Background(), Request{
		Blocks:   textBlocks(),
		Paper:    schema.PaperA4,
		Records:  records(5),
		BaseName: "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-batch-export.zip", res.Filename)
	assert.Empty(t, res.Failed)

	entries := readZip(t, res.Archive)
	require.Len(t, entries, 5)
	names := map[string]bool{}
	for name, data := range entries {
		assert.True(t, strings.HasPrefix(name, "payslips/acme-"), "entry %q", name)
		assert.True(t, strings.HasSuffix(name, ".pdf"), "entry %q", name)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "entry %q", name)
		assert.False(t, names[name], "duplicate entry %q", name)
		names[name] = true
	}
}

func TestGenerateBatchSizeBoundaries(t *testing.T) {
	r := &stubRenderer{}
	o := testOrchestrator(r, nil)

	res, err := o.Generate(context.Background(), Request{
		Blocks: textBlocks(), Records: records(MaxBatchSize), BaseName: "b",
	})
	require.NoError(t, err)
	assert.Len(t, readZip(t, res.Archive), MaxBatchSize)

	r.calls.Store(0)
	_, err = o.Generate(context.Background(), Request{
		Blocks: textBlocks(), Records: records(MaxBatchSize + 1), BaseName: "b",
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, int32(0), r.calls.Load(), "rejection must happen before any rendering")
}

func TestGenerateRejectsEmptyBatch(t *testing.T) {
	o := testOrchestrator(&stubRenderer{}, nil)
	_, err := o.Generate(context.Background(), Request{Blocks: textBlocks(), BaseName: "b"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestGenerateRejectsOversizedTree(t *testing.T) {
	blocks := make([]schema.Block, schema.MaxBlocks+1)
	for i := range blocks {
		blocks[i] = schema.Block{ID: fmt.Sprintf("b%d", i), Type: schema.BlockText, Text: &schema.TextProps{}}
	}
	o := testOrchestrator(&stubRenderer{}, nil)
	_, err := o.Generate(context.Background(), Request{Blocks: blocks, Records: records(1), BaseName: "b"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestGeneratePerRecordFailureIsolation(t *testing.T) {
	r := &stubRenderer{failWhen: func(doc pdf.Document) bool {
		return strings.Contains(doc.Blocks[0].Text.Content, "Employee 1")
	}}
	o := testOrchestrator(r, nil)
	res, err := o.Generate(context.Background(), Request{
		Blocks: textBlocks(), Records: records(3), BaseName: "b",
	})
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Index)
	assert.Len(t, readZip(t, res.Archive), 2)
}

func TestGenerateFilenameCollisionsDisambiguated(t *testing.T) {
	recs := []engine.Record{
		{"{{employee.fullName}}": "Jane Doe"},
		{"{{employee.fullName}}": "Jane Doe"},
	}
	o := testOrchestrator(&stubRenderer{}, nil)
	res, err := o.Generate(context.Background(), Request{
		Blocks: textBlocks(), Records: recs, BaseName: "b",
	})
	require.NoError(t, err)
	entries := readZip(t, res.Archive)
	require.Len(t, entries, 2)
	assert.Contains(t, entries, "payslips/b-Jane-Doe.pdf")
	assert.Contains(t, entries, "payslips/b-Jane-Doe-2.pdf")
}

func TestGenerateEmitsAuditOnSuccess(t *testing.T) {
	var got int
	audit := func(_ context.Context, count int, _ schema.PaperSize, _ schema.Orientation) {
		got = count
	}
	o := testOrchestrator(&stubRenderer{}, audit)
	_, err := o.Generate(context.Background(), Request{
		Blocks: textBlocks(), Records: records(4), BaseName: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestGenerateSubstitutesPerRecord(t *testing.T) {
	o := testOrchestrator(&stubRenderer{}, nil)
	res, err := o.Generate(context.Background(), Request{
		Blocks: textBlocks(), Records: records(2), BaseName: "b",
	})
	require.NoError(t, err)
	entries := readZip(t, res.Archive)
	assert.Contains(t, string(entries["payslips/b-Employee-0.pdf"]), "Payslip Employee 0")
	assert.Contains(t, string(entries["payslips/b-Employee-1.pdf"]), "Payslip Employee 1")
}
