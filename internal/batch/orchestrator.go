// Package batch drives the substitution, materialization and render pipeline
// over a list of records and packages the results into a ZIP archive.
package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/slipforge/payslip-app/internal/assets"
	"github.com/slipforge/payslip-app/internal/engine"
	"github.com/slipforge/payslip-app/internal/pdf"
	"github.com/slipforge/payslip-app/internal/schema"
)

const (
	// MaxBatchSize caps records per batch request.
	MaxBatchSize = 100
	// archiveFolder is the fixed subfolder documents live under in the ZIP.
	archiveFolder = "payslips"
	// defaultWorkers bounds concurrent renders when the caller does not.
	defaultWorkers = 4
)

// ValidationError reports malformed or oversized batch input; it is raised
// before any rendering work starts and maps to a 4xx at the boundary.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "batch: " + e.Reason }

// RecordFailure identifies one record whose render failed while the rest of
// the batch continued.
type RecordFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Request is one batch generation job.
type Request struct {
	Blocks      []schema.Block
	Styles      schema.GlobalStyles
	Paper       schema.PaperSize
	Orientation schema.Orientation
	Records     []engine.Record
	BaseName    string
}

// Result is the finished archive plus per-record failures, if any.
type Result struct {
	Archive  []byte
	Filename string
	Failed   []RecordFailure
}

// AuditFunc receives a summary event after a batch completes.
type AuditFunc func(ctx context.Context, recordCount int, paper schema.PaperSize, orientation schema.Orientation)

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	renderer     pdf.Renderer
	materializer *assets.Materializer
	workers      int
	audit        AuditFunc
	log          zerolog.Logger
}

// New builds an Orchestrator. workers <= 0 selects the default pool size;
// audit may be nil.
func New(renderer pdf.Renderer, materializer *assets.Materializer, workers int, audit AuditFunc, log zerolog.Logger) *Orchestrator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Orchestrator{
		renderer:     renderer,
		materializer: materializer,
		workers:      workers,
		audit:        audit,
		log:          log,
	}
}

// Generate runs the batch: validate, materialize assets once on the
// unsubstituted tree, render every record through a bounded worker pool, and
// assemble the archive serially in input order. A record whose render fails
// is reported in Result.Failed and skipped; it never aborts the batch.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	if len(req.Records) == 0 {
		return nil, &ValidationError{Reason: "batch requires at least one record"}
	}
	if len(req.Records) > MaxBatchSize {
		return nil, &ValidationError{Reason: fmt.Sprintf("%d records exceeds the maximum of %d", len(req.Records), MaxBatchSize)}
	}
	if err := schema.ValidateBlocks(req.Blocks); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if !req.Paper.Valid() {
		req.Paper = schema.PaperA4
	}
	if !req.Orientation.Valid() {
		req.Orientation = schema.OrientationPortrait
	}
	baseName := sanitizeName(req.BaseName)
	if baseName == "" {
		baseName = "payslip"
	}

	// Record-independent assets (company logos and the like) are fetched
	// once so N records do not refetch the same URLs.
	tree := o.materializer.Materialize(ctx, req.Blocks)

	docs := make([][]byte, len(req.Records))
	failures := make([]error, len(req.Records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, rec := range req.Records {
		i, rec := i, rec
		g.Go(func() error {
			concrete := engine.Apply(tree, rec)
			data, err := o.renderer.Render(gctx, pdf.Document{
				Blocks:      concrete,
				Styles:      req.Styles,
				Paper:       req.Paper,
				Orientation: req.Orientation,
			})
			if err != nil {
				failures[i] = err
				return nil
			}
			docs[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Filename: baseName + "-batch-export.zip"}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := map[string]bool{}
	for i := range req.Records {
		if failures[i] != nil {
			o.log.Warn().Str("action", "batch_record").Int("index", i).
				Err(failures[i]).Msg("record skipped")
			res.Failed = append(res.Failed, RecordFailure{Index: i, Error: failures[i].Error()})
			continue
		}
		name := DeriveFilename(req.Records[i], i)
		if used[name] {
			name = fmt.Sprintf("%s-%d", name, i+1)
		}
		used[name] = true
		entry, err := zw.Create(fmt.Sprintf("%s/%s-%s.pdf", archiveFolder, baseName, name))
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(docs[i]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	res.Archive = buf.Bytes()

	if o.audit != nil {
		o.audit(ctx, len(req.Records), req.Paper, req.Orientation)
	}
	o.log.Info().Str("action", "batch_export").
		Int("records", len(req.Records)).Int("failed", len(res.Failed)).
		Str("paper", string(req.Paper)).Str("orientation", string(req.Orientation)).
		Msg("batch generated")
	return res, nil
}
