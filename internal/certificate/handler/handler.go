package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"certgen/internal/catalog"
	"certgen/internal/certificate/archivecache"
	"certgen/internal/certificate/models"
	"certgen/internal/certificate/normalize"
	"certgen/internal/platform/metrics"
	id "certgen/pkg/domain"
	dErrors "certgen/pkg/domain-errors"
	"certgen/pkg/platform/httputil"
	"certgen/pkg/requestcontext"
)

const (
	contentTypeZip = "application/zip"

	headerBatchID        = "X-Batch-ID"
	headerGeneratedCount = "X-Generated-Count"
	headerFailedCount    = "X-Failed-Count"

	multipartMemory = 8 << 20
)

// Service defines the certificate operations exposed over HTTP.
type Service interface {
	Catalog() *catalog.Catalog
	GenerateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchReport, error)
	GenerateApproved(ctx context.Context, req models.ApprovedRequest) (*models.BatchReport, error)
	ListRecords(ctx context.Context, owner id.OwnerID, organization, status string) ([]models.CertificateRecord, error)
	FetchArchive(ctx context.Context, owner id.OwnerID, batchID id.BatchID) (archivecache.Entry, error)
}

// Handler serves the certificate endpoints.
type Handler struct {
	service   Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	maxUpload int64
}

// New creates a certificate Handler. Roster uploads larger than maxUpload
// bytes are rejected.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, maxUpload int64) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		metrics:   metrics,
		maxUpload: maxUpload,
	}
}

// Register registers the certificate routes. The caller applies
// authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/catalog", h.handleCatalog)
	r.Get("/certificates", h.handleListRecords)
	r.Post("/certificates/batches", h.handleGenerateBatch)
	r.Get("/certificates/batches/{batchID}/archive", h.handleDownloadArchive)
	r.Get("/certificates/approved", h.handleGenerateApproved)
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toCatalogResponse(h.service.Catalog()))
}

func (h *Handler) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	owner, ok := h.owner(ctx, w)
	if !ok {
		return
	}

	if r.ContentLength > h.maxUpload {
		httputil.WriteError(w, dErrors.New(dErrors.CodeTooLarge, "roster upload is too large"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req *GenerateBatchRequest
	if isMultipart(r) {
		req, ok = h.decodeMultipart(w, r)
	} else {
		req, ok = httputil.DecodeAndPrepare[GenerateBatchRequest](w, r, h.logger, ctx, requestID)
	}
	if !ok {
		return
	}

	report, err := h.service.GenerateBatch(ctx, req.toModel(owner))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to generate certificate batch")
		return
	}

	if acceptsZip(r) {
		h.writeArchive(w, report)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(report))
}

// decodeMultipart reads the form fields and the CSV roster in the "file" part.
func (h *Handler) decodeMultipart(w http.ResponseWriter, r *http.Request) (*GenerateBatchRequest, bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeTooLarge, "roster upload is too large"))
			return nil, false
		}
		h.logger.WarnContext(ctx, "failed to parse multipart form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file is required"))
		return nil, false
	}
	defer file.Close()
	h.metrics.ObserveUpload(header.Size)

	rows, err := normalize.ReadCSV(file)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected roster upload",
			"request_id", requestID,
			"filename", header.Filename,
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, false
	}

	req := &GenerateBatchRequest{
		Organization:    r.FormValue("organization"),
		Domain:          r.FormValue("domain"),
		CertificateType: r.FormValue("certificate_type"),
		ActivityType:    r.FormValue("activity_type"),
		Duration:        r.FormValue("duration"),
		Rows:            rows,
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return req, true
}

func (h *Handler) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(ctx, w)
	if !ok {
		return
	}
	batchID, err := id.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.FetchArchive(ctx, owner, batchID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to fetch archive")
		return
	}
	w.Header().Set(headerBatchID, batchID.String())
	httputil.WriteAttachment(w, contentTypeZip, entry.Name, entry.Data)
}

func (h *Handler) handleGenerateApproved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(ctx, w)
	if !ok {
		return
	}
	q := r.URL.Query()

	report, err := h.service.GenerateApproved(ctx, models.ApprovedRequest{
		OwnerID:      owner,
		Organization: q.Get("organization"),
		ActivityType: q.Get("activity_type"),
		Duration:     q.Get("duration"),
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to generate approved certificates")
		return
	}
	h.writeArchive(w, report)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(ctx, w)
	if !ok {
		return
	}
	q := r.URL.Query()

	records, err := h.service.ListRecords(ctx, owner, q.Get("organization"), q.Get("status"))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list records")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordsResponse(records))
}

// owner reads the authenticated owner. A missing owner means the route was
// mounted without the auth middleware.
func (h *Handler) owner(ctx context.Context, w http.ResponseWriter) (id.OwnerID, bool) {
	owner := requestcontext.OwnerID(ctx)
	if owner.IsNil() {
		h.logger.ErrorContext(ctx, "owner missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.OwnerID{}, false
	}
	return owner, true
}

func (h *Handler) writeArchive(w http.ResponseWriter, report *models.BatchReport) {
	w.Header().Set(headerBatchID, report.BatchID.String())
	w.Header().Set(headerGeneratedCount, strconv.Itoa(len(report.Generated)))
	w.Header().Set(headerFailedCount, strconv.Itoa(len(report.Failures)))
	httputil.WriteAttachment(w, contentTypeZip, report.ArchiveName, report.Archive)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	requestID := requestcontext.RequestID(ctx)
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestID,
		"error", err,
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, msg))
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func acceptsZip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == contentTypeZip {
			return true
		}
	}
	return false
}
