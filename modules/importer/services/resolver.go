package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
	"github.com/iota-uz/workbook-import/pkg/logging"
)

const projectCodeLen = 20

// Resolver turns free-text project and vendor references into ids, creating
// stub rows the first time a key is seen. It reads through the transaction in
// ctx, so a stub created inside a rolled back tab is never handed out again.
type Resolver struct {
	logger logrus.FieldLogger
}

func NewResolver(logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{logger: logger}
}

// Vendor returns the id of the vendor named name. An empty name yields 0.
func (r *Resolver) Vendor(ctx context.Context, name string) (uint, error) {
	clean := coerce.Text(name, coerce.DefaultTextLen)
	if clean == "" {
		return 0, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var existing models.Vendor
	err = tx.Select("id").Where("name = ?", clean).Take(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errors.Wrapf(err, "lookup vendor %q", clean)
	}
	vendor := models.Vendor{Name: clean}
	if err := tx.Create(&vendor).Error; err != nil {
		return 0, errors.Wrapf(err, "create vendor %q", clean)
	}
	r.logger.WithField("vendor", clean).Debug("created stub vendor")
	return vendor.ID, nil
}

// Project returns the id of the project with the given code. When none
// exists a stub is created named name (or the code) with extra applied.
// An empty code yields 0.
func (r *Resolver) Project(ctx context.Context, code, name string, extra ...func(*models.Project)) (uint, error) {
	clean := coerce.Text(code, projectCodeLen)
	if clean == "" {
		return 0, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var existing models.Project
	err = tx.Select("id").Where("code = ?", clean).Take(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errors.Wrapf(err, "lookup project %q", clean)
	}

	project := models.Project{
		Code:   clean,
		Name:   coerce.Text(name, coerce.DefaultTextLen),
		Status: models.ProjectStatusActive,
	}
	if project.Name == "" {
		project.Name = clean
	}
	for _, apply := range extra {
		apply(&project)
	}
	if err := tx.Create(&project).Error; err != nil {
		return 0, errors.Wrapf(err, "create project %q", clean)
	}
	r.logger.WithFields(logrus.Fields{"code": clean, "name": project.Name}).Debug("created stub project")
	return project.ID, nil
}

// ProjectByCode looks a project up without creating it.
func (r *Resolver) ProjectByCode(ctx context.Context, code string) (uint, bool, error) {
	clean := coerce.Text(code, projectCodeLen)
	if clean == "" {
		return 0, false, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, false, err
	}
	var existing models.Project
	err = tx.Select("id").Where("code = ?", clean).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "lookup project %q", clean)
	}
	return existing.ID, true, nil
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
