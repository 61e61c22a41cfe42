package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slipforge/payslip-app/internal/models"
)

// TemplateService encapsulates template business logic that goes beyond a
// plain row read/write.
type TemplateService struct {
	DB *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService { return &TemplateService{DB: db} }

// Duplicate deep-copies a template under a new identity. The copy is never
// the org default regardless of the source.
func (s *TemplateService) Duplicate(id string) (*models.Template, error) {
	var src models.Template
	if err := s.DB.First(&src, "id = ?", id).Error; err != nil {
		return nil, err
	}
	dup := src
	dup.ID = uuid.NewString()
	dup.Name = fmt.Sprintf("%s (copy)", src.Name)
	dup.IsDefault = false
	dup.CreatedAt = time.Time{}
	dup.UpdatedAt = time.Time{}
	if err := s.DB.Create(&dup).Error; err != nil {
		return nil, err
	}
	return &dup, nil
}
