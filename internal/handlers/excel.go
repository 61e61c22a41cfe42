package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/slipforge/payslip-app/internal/httpx"
	"github.com/slipforge/payslip-app/internal/schema"
	"github.com/slipforge/payslip-app/internal/xlsx"
)

// ExcelHandler serves the data-entry spreadsheet contract: template download
// and filled-upload parsing.
type ExcelHandler struct {
	Log zerolog.Logger
}

func NewExcelHandler(log zerolog.Logger) *ExcelHandler { return &ExcelHandler{Log: log} }

// Template: POST /excel/template – variable list in, header workbook out.
func (h *ExcelHandler) Template(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variables []schema.Variable `json:"variables"`
		Name      string            `json:"name,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if len(req.Variables) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"variables": "required"})
		return
	}
	data, err := xlsx.BuildTemplate(req.Variables)
	if err != nil {
		h.Log.Error().Str("action", "excel_template").Err(err).Msg("workbook build failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	name := sanitizeFilename(req.Name)
	if req.Name == "" {
		name = "batch-data"
	}
	httpx.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name+".xlsx", data)
}

// Upload: POST /excel/upload – multipart workbook in, record list out.
func (h *ExcelHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, xlsx.MaxUploadBytes+1)
	file, _, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "missing_file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unreadable_file", nil)
		return
	}
	if len(data) > xlsx.MaxUploadBytes {
		httpx.JSONError(w, http.StatusBadRequest, "file_too_large", nil)
		return
	}
	records, err := xlsx.ParseUpload(data)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_workbook", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}
