package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slipforge/payslip-app/internal/httpx"
	"github.com/slipforge/payslip-app/internal/models"
	"github.com/slipforge/payslip-app/internal/schema"
	"github.com/slipforge/payslip-app/internal/services"
)

// TemplateHandler is the thin CRUD surface over stored templates.
type TemplateHandler struct {
	DB  *gorm.DB
	Svc *services.TemplateService
}

func NewTemplateHandler(db *gorm.DB, svc *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{DB: db, Svc: svc}
}

// templateSchema is the persisted shape of Template.Schema.
type templateSchema struct {
	Blocks       []schema.Block      `json:"blocks"`
	Variables    []schema.Variable   `json:"variables"`
	GlobalStyles schema.GlobalStyles `json:"globalStyles"`
}

type templateRequest struct {
	Name         string              `json:"name"`
	OrgID        string              `json:"orgId,omitempty"`
	Blocks       []schema.Block      `json:"blocks"`
	GlobalStyles schema.GlobalStyles `json:"globalStyles"`
	PaperSize    schema.PaperSize    `json:"paperSize"`
	Orientation  schema.Orientation  `json:"orientation"`
	IsDefault    bool                `json:"isDefault"`
}

func (req templateRequest) validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
	)
}

// List: GET /templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.DB.Order("updated_at desc")
	if org := r.URL.Query().Get("org"); org != "" {
		q = q.Where("org_id = ?", org)
	}
	var items []models.Template
	if err := q.Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_templates", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// Create: POST /templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := req.validate(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := schema.ValidateBlocks(req.Blocks); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if !req.PaperSize.Valid() {
		req.PaperSize = schema.PaperA4
	}
	if !req.Orientation.Valid() {
		req.Orientation = schema.OrientationPortrait
	}
	blob, err := json.Marshal(templateSchema{
		Blocks:       req.Blocks,
		Variables:    schema.CollectVariables(req.Blocks),
		GlobalStyles: req.GlobalStyles,
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_encode_schema", nil)
		return
	}
	tpl := models.Template{
		ID:          uuid.NewString(),
		OrgID:       req.OrgID,
		Name:        req.Name,
		Schema:      string(blob),
		PaperSize:   string(req.PaperSize),
		Orientation: string(req.Orientation),
		IsDefault:   req.IsDefault,
	}
	if err := h.DB.Create(&tpl).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_template", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, tpl)
}

// Get: GET /templates/get?id=...
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

// Update: POST /templates/update?id=...
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.load(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := req.validate(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := schema.ValidateBlocks(req.Blocks); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	blob, err := json.Marshal(templateSchema{
		Blocks:       req.Blocks,
		Variables:    schema.CollectVariables(req.Blocks),
		GlobalStyles: req.GlobalStyles,
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_encode_schema", nil)
		return
	}
	updates := map[string]any{
		"name":       req.Name,
		"schema":     string(blob),
		"is_default": req.IsDefault,
	}
	if req.PaperSize.Valid() {
		updates["paper_size"] = string(req.PaperSize)
	}
	if req.Orientation.Valid() {
		updates["orientation"] = string(req.Orientation)
	}
	if err := h.DB.Model(tpl).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_template", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

// Delete: POST /templates/delete?id=...
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.DB.Delete(tpl).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_template", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Duplicate: POST /templates/duplicate?id=...
func (h *TemplateHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	dup, err := h.Svc.Duplicate(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_duplicate_template", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, dup)
}

// Variables: GET /templates/variables?id=... – the variable paths the stored
// template references, ready to feed the spreadsheet template endpoint.
func (h *TemplateHandler) Variables(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.load(w, r)
	if !ok {
		return
	}
	var decoded templateSchema
	if err := json.Unmarshal([]byte(tpl.Schema), &decoded); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "corrupt_template_schema", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"variables": schema.CollectVariables(decoded.Blocks),
	})
}

func (h *TemplateHandler) load(w http.ResponseWriter, r *http.Request) (*models.Template, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return nil, false
	}
	var tpl models.Template
	if err := h.DB.First(&tpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return nil, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_template", nil)
		return nil, false
	}
	return &tpl, true
}
