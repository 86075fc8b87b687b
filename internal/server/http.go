package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/budget-extractor/internal/budget"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BudgetAPI is the part of budget.Service the transports need.
type BudgetAPI interface {
	Extract(ctx context.Context, filename string, data []byte, backend string) (entity.ExtractionResult, error)
	ExtractText(ctx context.Context, text, backend string) (entity.ExtractionResult, error)
	Save(ctx context.Context, rec entity.ExtractedRecord) (int64, []string, error)
	ListProjects(ctx context.Context) ([]entity.Project, error)
	GetProject(ctx context.Context, id int64) (entity.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	ExportXLSX(ctx context.Context) ([]byte, error)
}

var _ BudgetAPI = (*budget.Service)(nil)

type HTTPConfig struct {
	RequestTimeout time.Duration
	MaxUploadBytes int64
	// Health reports store readiness; nil means always healthy.
	Health func(ctx context.Context) error
}

type HTTPHandler struct {
	svc    BudgetAPI
	cfg    HTTPConfig
	logger *slog.Logger
}

func NewHTTPHandler(svc BudgetAPI, cfg HTTPConfig, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	return &HTTPHandler{svc: svc, cfg: cfg, logger: logger}
}

// Routes builds the chi router.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.requestContext)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(h.cfg.RequestTimeout))

	r.Get("/health", h.health)
	r.Post("/extract", h.extract)
	r.Post("/save", h.save)
	r.Get("/export.xlsx", h.exportXLSX)
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.listProjects)
		r.Get("/{id}", h.getProject)
		r.Delete("/{id}", h.deleteProject)
	})
	return r
}

// requestContext carries chi's request id into the service layer and logs each request.
func (h *HTTPHandler) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := chimiddleware.GetReqID(r.Context())
		ctx := common.WithRequestID(r.Context(), rid)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		h.logger.Info("http.request",
			"req_id", rid,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Health != nil {
		if err := h.cfg.Health(r.Context()); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("multipart field \"file\" is required"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := h.svc.Extract(r.Context(), hdr.Filename, data, r.URL.Query().Get("backend"))
	if err != nil {
		h.writeError(w, r, common.HTTPStatus(err), err)
		return
	}
	if res.ValidationErrors == nil {
		res.ValidationErrors = []string{}
	}
	h.writeJSON(w, http.StatusOK, res)
}

type saveResponse struct {
	Message   string `json:"message"`
	ProjectID int64  `json:"project_id"`
}

type validationResponse struct {
	ValidationErrors []string `json:"validation_errors"`
}

func (h *HTTPHandler) save(w http.ResponseWriter, r *http.Request) {
	var rec entity.ExtractedRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	id, violations, err := h.svc.Save(r.Context(), rec)
	if len(violations) > 0 {
		h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{ValidationErrors: violations})
		return
	}
	if err != nil {
		h.writeError(w, r, common.HTTPStatus(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, saveResponse{Message: budget.SavedMessage, ProjectID: id})
}

type projectDTO struct {
	entity.Project
	Total float64 `json:"total"`
}

func (h *HTTPHandler) listProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.writeError(w, r, common.HTTPStatus(err), err)
		return
	}
	out := make([]projectDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, projectDTO{Project: p, Total: p.Total()})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		h.writeError(w, r, common.HTTPStatus(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, projectDTO{Project: p, Total: p.Total()})
}

func (h *HTTPHandler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteProject(r.Context(), id); err != nil {
		h.writeError(w, r, common.HTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.ExportXLSX(r.Context())
	if err != nil {
		h.writeError(w, r, common.HTTPStatus(err), err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="budgets.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}

func (h *HTTPHandler) projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, http.StatusBadRequest, errors.New("project id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("http.encode_failed", "error", err)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("http.request_failed", "req_id", common.RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
