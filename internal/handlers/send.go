package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"

	"github.com/slipforge/payslip-app/internal/assets"
	"github.com/slipforge/payslip-app/internal/engine"
	"github.com/slipforge/payslip-app/internal/httpx"
	"github.com/slipforge/payslip-app/internal/pdf"
	"github.com/slipforge/payslip-app/internal/schema"
	"github.com/slipforge/payslip-app/internal/services"
)

// SendHandler renders one document and hands it to the mailer.
type SendHandler struct {
	Renderer     pdf.Renderer
	Materializer *assets.Materializer
	Mailer       services.Mailer
	Audit        *services.AuditRecorder
	Log          zerolog.Logger
}

func NewSendHandler(r pdf.Renderer, m *assets.Materializer, mail services.Mailer, a *services.AuditRecorder, log zerolog.Logger) *SendHandler {
	return &SendHandler{Renderer: r, Materializer: m, Mailer: mail, Audit: a, Log: log}
}

type sendRequest struct {
	exportRequest
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName,omitempty"`
	DocumentType   string `json:"documentType,omitempty"`
	Period         string `json:"period,omitempty"`
}

func (req sendRequest) validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.RecipientEmail, validation.Required, is.Email),
	)
}

// Send: POST /export/send
func (h *SendHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
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

	docType := req.DocumentType
	if docType == "" {
		docType = "payslip"
	}
	subject := docType
	if req.Period != "" {
		subject = fmt.Sprintf("%s – %s", docType, req.Period)
	}
	msg := services.Message{
		RecipientEmail: req.RecipientEmail,
		RecipientName:  req.RecipientName,
		Subject:        subject,
		Body:           fmt.Sprintf("Please find your %s attached.", docType),
		AttachmentName: sanitizeFilename(req.Name) + ".pdf",
		Attachment:     data,
	}
	if err := h.Mailer.Send(r.Context(), msg); err != nil {
		h.Log.Error().Str("action", "send_payslip").Str("recipient", req.RecipientEmail).
			Err(err).Msg("mail handoff failed")
		httpx.JSONError(w, http.StatusInternalServerError, "send_failed", nil)
		return
	}
	h.Audit.Record(r.Context(), "", "send_payslip", "Template", "",
		fmt.Sprintf("recipient=%s type=%s", req.RecipientEmail, docType))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func sanitizeFilename(s string) string {
	out := filenameUnsafe.ReplaceAllString(s, "-")
	if out == "" {
		return "document"
	}
	return out
}
