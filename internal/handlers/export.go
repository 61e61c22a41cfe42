package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/slipforge/payslip-app/internal/assets"
	"github.com/slipforge/payslip-app/internal/batch"
	"github.com/slipforge/payslip-app/internal/engine"
	"github.com/slipforge/payslip-app/internal/httpx"
	"github.com/slipforge/payslip-app/internal/pdf"
	"github.com/slipforge/payslip-app/internal/schema"
	"github.com/slipforge/payslip-app/internal/services"
)

// ExportHandler serves single-document and batch exports.
type ExportHandler struct {
	Renderer     pdf.Renderer
	Materializer *assets.Materializer
	Orch         *batch.Orchestrator
	Audit        *services.AuditRecorder
	Log          zerolog.Logger
}

func NewExportHandler(r pdf.Renderer, m *assets.Materializer, o *batch.Orchestrator, a *services.AuditRecorder, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{Renderer: r, Materializer: m, Orch: o, Audit: a, Log: log}
}

type exportRequest struct {
	Blocks       []schema.Block      `json:"blocks"`
	GlobalStyles schema.GlobalStyles `json:"globalStyles"`
	PaperSize    schema.PaperSize    `json:"paperSize"`
	Orientation  schema.Orientation  `json:"orientation"`
	Name         string              `json:"name"`
	Data         engine.Record       `json:"data,omitempty"`
}

func (req *exportRequest) normalize() {
	if !req.PaperSize.Valid() {
		req.PaperSize = schema.PaperA4
	}
	if !req.Orientation.Valid() {
		req.Orientation = schema.OrientationPortrait
	}
	if req.Name == "" {
		req.Name = "payslip"
	}
}

// PDF: POST /export/pdf – renders one document and streams it as a download.
func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.normalize()
	if err := schema.ValidateBlocks(req.Blocks); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	tree := h.Materializer.Materialize(r.Context(), req.Blocks)
	if len(req.Data) > 0 {
		tree = engine.Apply(tree, req.Data)
	}
	data, err := h.Renderer.Render(r.Context(), pdf.Document{
		Blocks:      tree,
		Styles:      req.GlobalStyles,
		Paper:       req.PaperSize,
		Orientation: req.Orientation,
	})
	if err != nil {
		writeRenderError(w, err)
		return
	}
	h.Audit.Record(r.Context(), "", "export_pdf", "Template", "",
		fmt.Sprintf("blocks=%d paper=%s", schema.CountBlocks(req.Blocks), req.PaperSize))
	httpx.Attachment(w, "application/pdf", sanitizeFilename(req.Name)+".pdf", data)
}

type batchRequest struct {
	exportRequest
	BatchData []engine.Record `json:"batchData"`
}

// Batch: POST /export/batch – renders one PDF per record into a ZIP.
func (h *ExportHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.normalize()

	res, err := h.Orch.Generate(r.Context(), batch.Request{
		Blocks:      req.Blocks,
		Styles:      req.GlobalStyles,
		Paper:       req.PaperSize,
		Orientation: req.Orientation,
		Records:     req.BatchData,
		BaseName:    req.Name,
	})
	if err != nil {
		var verr *batch.ValidationError
		if errors.As(err, &verr) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Reason)
			return
		}
		writeRenderError(w, err)
		return
	}
	if n := len(res.Failed); n > 0 {
		// Successful records still ship; the header lets callers notice the
		// partial outcome without parsing the archive.
		w.Header().Set("X-Failed-Records", strconv.Itoa(n))
	}
	httpx.Attachment(w, "application/zip", res.Filename, res.Archive)
}

// writeRenderError maps pipeline failures onto the response taxonomy: "too
// slow" is distinguishable from "broken input", anything else is opaque.
func writeRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pdf.ErrRenderTimeout):
		httpx.JSONError(w, http.StatusGatewayTimeout, "render_timed_out", nil)
	case errors.Is(err, pdf.ErrRenderFailed):
		httpx.JSONError(w, http.StatusInternalServerError, "render_failed", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
