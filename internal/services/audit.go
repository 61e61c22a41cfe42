package services

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/slipforge/payslip-app/internal/models"
)

// AuditRecorder persists audit events. Recording is best-effort: a failed
// write is logged and never propagated, so telemetry can never fail the
// operation it describes.
type AuditRecorder struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewAuditRecorder(db *gorm.DB, log zerolog.Logger) *AuditRecorder {
	return &AuditRecorder{DB: db, Log: log}
}

func (a *AuditRecorder) Record(ctx context.Context, orgID, action, entityType, entityID, detail string) {
	if a == nil || a.DB == nil {
		return
	}
	entry := models.AuditLog{
		OrgID:      orgID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	if err := a.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		a.Log.Warn().Str("action", "audit_write").Str("audit_action", action).Err(err).
			Msg("audit write failed")
	}
}
