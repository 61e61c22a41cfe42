package models

import "time"

// Template is a stored payslip template. Schema holds the serialized block
// tree plus global styles as a JSON blob; the rendering pipeline deserializes
// it read-only and never writes it back.
type Template struct {
	ID          string `gorm:"primaryKey;size:36"` // uuid
	OrgID       string `gorm:"index;size:36"`
	Name        string `gorm:"size:255;not null"`
	Schema      string // JSON: blocks + variables + globalStyles
	PaperSize   string `gorm:"size:10"` // A4 | LETTER | LEGAL
	Orientation string `gorm:"size:10"` // PORTRAIT | LANDSCAPE
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Audit logging
type AuditLog struct {
	ID         uint   `gorm:"primaryKey"`
	OrgID      string `gorm:"size:36"`
	Action     string `gorm:"size:64"` // ex: "export_pdf", "batch_export", "send_payslip"
	EntityType string `gorm:"size:64"` // ex: "Template", "Batch"
	EntityID   string `gorm:"size:64"`
	Detail     string // free-form context (record count, paper size, ...)
	CreatedAt  time.Time
}
