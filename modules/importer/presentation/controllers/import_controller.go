package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/modules/importer/presentation/controllers/dtos"
	"github.com/iota-uz/workbook-import/modules/importer/services"
	"github.com/iota-uz/workbook-import/pkg/httpapi"
	"github.com/iota-uz/workbook-import/pkg/logging"
	"github.com/iota-uz/workbook-import/pkg/server"
)

const (
	defaultMaxUploadBytes = 50 << 20
	multipartMemory       = 8 << 20
)

var (
	workbookExtensions = []string{".xlsx", ".xlsm"}
	csvExtensions      = []string{".csv"}
)

func uploadExtensions(source domain.Source) []string {
	switch source {
	case domain.SourceBudgets, domain.SourceBudgetSingle:
		return csvExtensions
	case domain.SourceSchedule:
		return nil
	default:
		return workbookExtensions
	}
}

// errInvalidUpload marks failures reported as 400 INVALID_UPLOAD.
var errInvalidUpload = errors.New("invalid upload")

type ImportController struct {
	deps     services.Deps
	batches  *persistence.ImportBatchRepository
	basePath string
}

func NewImportController(deps services.Deps) server.Controller {
	return &ImportController{
		deps:     deps,
		batches:  persistence.NewImportBatchRepository(),
		basePath: "/api/admin/import",
	}
}

func (c *ImportController) Key() string {
	return c.basePath
}

func (c *ImportController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/sources", c.Sources).Methods(http.MethodGet)
	router.HandleFunc("/batches", c.Batches).Methods(http.MethodGet)
	router.HandleFunc("/{source}", c.Upload).Methods(http.MethodPost)
}

func (c *ImportController) maxUploadBytes() int64 {
	if n := c.deps.Options.MaxUploadBytes(); n > 0 {
		return n
	}
	return defaultMaxUploadBytes
}

func (c *ImportController) Sources(w http.ResponseWriter, r *http.Request) {
	out := make([]dtos.SourceDTO, 0, len(domain.Sources))
	for _, s := range domain.Sources {
		ext := uploadExtensions(s)
		out = append(out, dtos.SourceDTO{
			Name:       s.String(),
			Uploadable: len(ext) > 0,
			Extensions: ext,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *ImportController) Batches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := c.batches.Recent(r.Context(), limit)
	if err != nil {
		logging.UseLogger(r.Context()).WithError(err).Error("list import batches")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, httpapi.CodeInternal, err.Error(), nil)
		return
	}
	out := make([]dtos.BatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, dtos.BatchDTO{
			BatchID:     b.BatchID,
			Source:      b.Source,
			Status:      b.Status,
			RecordCount: b.RecordCount,
			Created:     b.Created,
			Updated:     b.Updated,
			Skipped:     b.Skipped,
			Errors:      b.ErrorCount,
			StartedAt:   b.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Duration:    b.FinishedAt.Sub(b.StartedAt).Seconds(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *ImportController) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.UseLogger(ctx)

	source, err := domain.ParseSource(mux.Vars(r)["source"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeUnknownSource, err.Error(), map[string]string{
			"valid": strings.Join(domain.SourceNames(), ","),
		})
		return
	}

	limit := c.maxUploadBytes()
	if r.ContentLength > limit {
		_ = httpapi.WriteError(w, http.StatusRequestEntityTooLarge, httpapi.CodeUploadTooLarge,
			fmt.Sprintf("upload exceeds %d bytes", limit), nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = httpapi.WriteError(w, http.StatusRequestEntityTooLarge, httpapi.CodeUploadTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidUpload, err.Error(), nil)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.WithError(err).Warn("remove multipart temp files")
		}
	}()

	dto := &dtos.UploadDTO{Source: source.String(), Files: r.MultipartForm.File["file"]}
	if errs, ok := dto.Ok(); !ok {
		msg := errs["Source"]
		if msg == "" {
			msg = errs["Files"]
		}
		if msg == "" {
			msg = "invalid upload"
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidUpload, msg, errs)
		return
	}
	if source != domain.SourceBudgets && len(dto.Files) > 1 {
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidUpload,
			fmt.Sprintf("source %s takes a single file", source), nil)
		return
	}

	dir, err := c.tempDir()
	if err != nil {
		logger.WithError(err).Error("create upload dir")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, httpapi.CodeInternal, err.Error(), nil)
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.WithError(err).Warn("remove upload dir")
		}
	}()

	var saved string
	for _, header := range dto.Files {
		path, err := saveUpload(header, dir, uploadExtensions(source))
		if err != nil {
			if errors.Is(err, errInvalidUpload) {
				_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidUpload, err.Error(),
					map[string]string{"file": header.Filename})
				return
			}
			logger.WithError(err).Error("save upload")
			_ = httpapi.WriteError(w, http.StatusInternalServerError, httpapi.CodeInternal, err.Error(), nil)
			return
		}
		saved = path
	}

	input := saved
	if source == domain.SourceBudgets {
		input = dir
	}
	deps := c.deps
	deps.Logger = logger
	imp, err := services.NewImporter(source, deps, input)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeUnknownSource, err.Error(), nil)
		return
	}
	res, err := imp.Run(ctx)
	if err != nil {
		logger.WithError(err).WithField("source", source.String()).Error("upload import failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, httpapi.CodeImportFailed, "Import failed: "+err.Error(), nil)
		return
	}

	errs := res.ErrorsHead(c.deps.Options.ErrorLimit)
	if errs == nil {
		errs = []string{}
	}
	resp := &dtos.ImportResponse{
		Status:          "complete",
		BatchID:         res.BatchID,
		Created:         res.Created,
		Updated:         res.Updated,
		Skipped:         res.Skipped,
		Errors:          errs,
		ErrorCount:      len(res.Errors),
		DurationSeconds: res.Duration().Seconds(),
	}
	if source == domain.SourceBudgets {
		resp.FilesUploaded = len(dto.Files)
	} else {
		resp.File = dto.Files[0].Filename
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, resp)
}

func (c *ImportController) tempDir() (string, error) {
	base := c.deps.Options.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "import_"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	return dir, nil
}

// saveUpload copies one part into dir under its base name after checking the
// extension and the sniffed content type.
func saveUpload(header *multipart.FileHeader, dir string, allowed []string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + header.Filename))
	if name == "/" || name == "." {
		return "", errors.Wrap(errInvalidUpload, "file name is empty")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !hasExtension(allowed, ext) {
		return "", errors.Wrapf(errInvalidUpload, "file %s must be one of %s", name, strings.Join(allowed, ", "))
	}

	src, err := header.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	mime, err := mimetype.DetectReader(src)
	if err != nil {
		return "", errors.Wrap(err, "detect upload type")
	}
	if !mimeAllowed(mime, ext) {
		return "", errors.Wrapf(errInvalidUpload, "file %s looks like %s", name, mime.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "rewind upload")
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", errors.Wrap(err, "write upload file")
	}
	return path, dst.Close()
}

func hasExtension(allowed []string, ext string) bool {
	for _, a := range allowed {
		if a == ext {
			return true
		}
	}
	return false
}

// mimeAllowed accepts workbooks detected as any zip container and CSV
// detected as any text type.
func mimeAllowed(mime *mimetype.MIME, ext string) bool {
	want := "application/zip"
	if ext == ".csv" {
		want = "text/plain"
	}
	for m := mime; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}
