package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"note-service/internal/middleware"
	"note-service/internal/model"
	"note-service/internal/store"
	"note-service/pkg/config"
	"note-service/pkg/logger"
	"note-service/prometheus"
)

// NoteRequest defines the structure for note creation/update requests.
// Tenant and user are never taken from the body.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NoteHandler serves the tenant-scoped note CRUD operations. Every store
// call carries the tenant ID from the verified claims, so a note is only
// ever visible to requests of its own tenant.
type NoteHandler struct {
	store      store.Store
	quotaLimit int64
	serialized bool
}

func NewNoteHandler(s store.Store, quota *config.QuotaConfig) *NoteHandler {
	return &NoteHandler{
		store:      s,
		quotaLimit: int64(quota.FreeNoteLimit),
		serialized: quota.Consistency == config.QuotaSerialized,
	}
}

// ListNotes returns the notes of the claims' tenant.
func (h *NoteHandler) ListNotes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("list")

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		log.Error("Missing claims in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	notes, err := h.store.ListNotes(c.Request().Context(), claims.TenantID)
	if err != nil {
		log.Error("Failed to list notes", zap.Uint("tenant_id", claims.TenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	log.Info("Notes listed", zap.Uint("tenant_id", claims.TenantID), zap.Int("count", len(notes)))
	return c.JSON(http.StatusOK, notes)
}

// GetNote looks a note up by (id, tenant). A note that does not exist and a
// note of another tenant produce the same 404.
func (h *NoteHandler) GetNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("get")

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		log.Error("Missing claims in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		log.Warn("Invalid note ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	note, err := h.store.GetNote(c.Request().Context(), id, claims.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to get note", zap.Uint("note_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	return c.JSON(http.StatusOK, note)
}

// CreateNote stamps the new note with tenant and user from the claims and
// enforces the free plan quota before inserting.
func (h *NoteHandler) CreateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("create")

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		log.Error("Missing claims in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse note creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title == "" {
		log.Warn("Note creation without title", zap.Uint("tenant_id", claims.TenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	note := &model.Note{
		Title:    req.Title,
		Content:  req.Content,
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.createWithQuota(c, note, claims.Plan); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			prometheus.QuotaExceededCounter.Inc()
			log.Warn("Free plan note limit reached",
				zap.Uint("tenant_id", claims.TenantID),
				zap.Int64("limit", h.quotaLimit))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "free plan limit reached"})
		}
		log.Error("Failed to create note", zap.Uint("tenant_id", claims.TenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	log.Info("Note created",
		zap.Uint("note_id", note.ID),
		zap.Uint("tenant_id", note.TenantID),
		zap.Uint("user_id", note.UserID))

	return c.JSON(http.StatusCreated, note)
}

// createWithQuota applies the plan gate. The pro plan has no limit. Under
// the free plan the check runs either as two statements (best effort, the
// count can be overshot by concurrent creates) or as one serialized store
// call that cannot overshoot.
func (h *NoteHandler) createWithQuota(c echo.Context, note *model.Note, plan string) error {
	ctx := c.Request().Context()

	if plan != model.PlanFree {
		return h.store.CreateNote(ctx, note)
	}

	if h.serialized {
		return h.store.CreateNoteLimited(ctx, note, h.quotaLimit)
	}

	count, err := h.store.CountNotes(ctx, note.TenantID)
	if err != nil {
		return err
	}
	if count >= h.quotaLimit {
		return store.ErrQuotaExceeded
	}
	return h.store.CreateNote(ctx, note)
}

// UpdateNote re-confirms (id, tenant) ownership, then merges: an empty or
// omitted title keeps the previous title, same for content.
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("update")

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		log.Error("Missing claims in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		log.Warn("Invalid note ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note ID"})
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse note update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	existing, err := h.store.GetNote(c.Request().Context(), id, claims.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to get note for update", zap.Uint("note_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	title := req.Title
	if title == "" {
		title = existing.Title
	}
	content := req.Content
	if content == "" {
		content = existing.Content
	}

	note, err := h.store.UpdateNote(c.Request().Context(), id, claims.TenantID, title, content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to update note", zap.Uint("note_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	log.Info("Note updated", zap.Uint("note_id", note.ID), zap.Uint("tenant_id", note.TenantID))
	return c.JSON(http.StatusOK, note)
}

// DeleteNote re-confirms (id, tenant) ownership before deleting.
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("delete")

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		log.Error("Missing claims in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		log.Warn("Invalid note ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.store.DeleteNote(c.Request().Context(), id, claims.TenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to delete note", zap.Uint("note_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	log.Info("Note deleted", zap.Uint("note_id", id), zap.Uint("tenant_id", claims.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
