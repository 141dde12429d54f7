package dtos

import (
	"fmt"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UploadDTO is one POST /api/admin/import/{source} request.
type UploadDTO struct {
	Source string                  `validate:"required,oneof=masterfile jobs budgets budget_single leads proposals"`
	Files  []*multipart.FileHeader `validate:"min=1,dive,required"`
}

func (d *UploadDTO) Ok() (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := validate.Struct(d)
	if errs == nil {
		return errorMessages, true
	}
	for _, err := range errs.(validator.ValidationErrors) {
		switch err.Tag() {
		case "oneof":
			errorMessages[err.Field()] = fmt.Sprintf("source %q does not accept uploads", d.Source)
		case "min":
			errorMessages[err.Field()] = "no file found in multipart field \"file\""
		default:
			errorMessages[err.Field()] = fmt.Sprintf("%s failed on %s", err.Field(), err.Tag())
		}
	}
	return errorMessages, len(errorMessages) == 0
}

type ImportResponse struct {
	Status          string   `json:"status"`
	BatchID         string   `json:"batch_id"`
	File            string   `json:"file,omitempty"`
	FilesUploaded   int      `json:"files_uploaded,omitempty"`
	Created         int      `json:"created"`
	Updated         int      `json:"updated"`
	Skipped         int      `json:"skipped"`
	Errors          []string `json:"errors"`
	ErrorCount      int      `json:"error_count"`
	DurationSeconds float64  `json:"duration_seconds"`
}

type SourceDTO struct {
	Name       string   `json:"name"`
	Uploadable bool     `json:"uploadable"`
	Extensions []string `json:"extensions,omitempty"`
}

type BatchDTO struct {
	BatchID     string  `json:"batch_id"`
	Source      string  `json:"source"`
	Status      string  `json:"status"`
	RecordCount int     `json:"record_count"`
	Created     int     `json:"created"`
	Updated     int     `json:"updated"`
	Skipped     int     `json:"skipped"`
	Errors      int     `json:"errors"`
	StartedAt   string  `json:"started_at"`
	Duration    float64 `json:"duration_seconds"`
}
