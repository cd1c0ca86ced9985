// Package http provides HTTP handlers for evidence file operations: upload,
// signed-URL issuing and the public token-gated download. Every outcome of
// the download endpoint lands on the audit trail, denials included.
package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	auditUseCase "github.com/guardianlk/guardian/internal/audit/usecase"
	apperrors "github.com/guardianlk/guardian/internal/errors"
	filesService "github.com/guardianlk/guardian/internal/files/service"
	"github.com/guardianlk/guardian/internal/httputil"
)

// DownloadPath is the public download endpoint signed URLs point at.
const DownloadPath = "/api/v1/public/files/download"

// FileHandler handles HTTP requests for evidence file operations.
type FileHandler struct {
	storage     *filesService.Storage
	tokens      *filesService.DownloadTokenService
	recorder    *auditUseCase.Recorder
	errorWriter *httputil.ErrorWriter
}

// NewFileHandler creates a new file handler with required dependencies.
func NewFileHandler(
	storage *filesService.Storage,
	tokens *filesService.DownloadTokenService,
	recorder *auditUseCase.Recorder,
	errorWriter *httputil.ErrorWriter,
) *FileHandler {
	return &FileHandler{
		storage:     storage,
		tokens:      tokens,
		recorder:    recorder,
		errorWriter: errorWriter,
	}
}

// UploadHandler stores an uploaded image.
// POST /v1/files/upload - multipart field "file", JPEG/PNG only, 5MB cap.
// Returns 200 OK with {id, ext, size}.
func (h *FileHandler) UploadHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.errorWriter.Write(c, apperrors.NewClassified(http.StatusBadRequest, "No file uploaded", err))
		return
	}
	if fileHeader.Size > filesService.MaxUploadBytes {
		h.errorWriter.Write(c, apperrors.NewClassified(
			http.StatusBadRequest, "File too large", apperrors.ErrInvalidInput))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.errorWriter.Write(c, apperrors.Wrap(err, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, filesService.MaxUploadBytes+1))
	if err != nil {
		h.errorWriter.Write(c, apperrors.Wrap(err, "failed to read uploaded file"))
		return
	}
	if int64(len(content)) > filesService.MaxUploadBytes {
		h.errorWriter.Write(c, apperrors.NewClassified(
			http.StatusBadRequest, "File too large", apperrors.ErrInvalidInput))
		return
	}

	id, ext, err := h.storage.Save(content, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidInput) {
			h.errorWriter.Write(c, apperrors.NewClassified(
				http.StatusBadRequest, "Only JPEG/PNG images are allowed", err))
			return
		}
		h.errorWriter.Write(c, err)
		return
	}

	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionFileUpload,
		Entity:   "file",
		EntityID: id,
		Metadata: map[string]any{"ext": ext, "size": len(content)},
	})
	c.JSON(http.StatusOK, gin.H{"id": id, "ext": ext, "size": len(content)})
}

// SignHandler issues a time-limited signed download URL for a stored file.
// POST /v1/files/:id/sign - mounted under the authenticated group.
// Returns 200 OK with {url, expires_in_min}.
func (h *FileHandler) SignHandler(c *gin.Context) {
	fileID := c.Param("id")
	if _, err := h.storage.Find(fileID); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			h.errorWriter.Write(c, apperrors.NewClassified(http.StatusNotFound, "File not found", err))
			return
		}
		h.errorWriter.Write(c, err)
		return
	}

	token, err := h.tokens.Issue(fileID, c.GetString("user_id"))
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}

	ttlMin := int(h.tokens.TTL().Minutes())
	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionFileSignURL,
		Entity:   "file",
		EntityID: fileID,
		Metadata: map[string]any{"ttl_min": ttlMin},
	})
	c.JSON(http.StatusOK, gin.H{
		"url":            fmt.Sprintf("%s?token=%s", DownloadPath, token),
		"expires_in_min": ttlMin,
	})
}

// DownloadHandler streams a file to the bearer of a valid download token.
// GET /v1/public/files/download?token=... - public, rate limited.
// Denied and missing outcomes are audited before the error response.
func (h *FileHandler) DownloadHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.errorWriter.Write(c, apperrors.NewClassified(
			http.StatusBadRequest, "Missing token", apperrors.ErrInvalidInput))
		return
	}

	grant, err := h.tokens.Verify(token)
	if err != nil {
		h.record(c, auditDomain.Event{
			Action:   auditDomain.ActionFileDownloadDenied,
			Entity:   "file",
			Metadata: map[string]any{"reason": "invalid_or_expired_token"},
		})
		h.errorWriter.Write(c, apperrors.NewClassified(
			http.StatusForbidden, "Invalid or expired token", err))
		return
	}

	stored, err := h.storage.Find(grant.FileID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			h.record(c, auditDomain.Event{
				Action:   auditDomain.ActionFileDownloadMissing,
				Entity:   "file",
				EntityID: grant.FileID,
			})
			h.errorWriter.Write(c, apperrors.NewClassified(http.StatusNotFound, "File not found", err))
			return
		}
		h.errorWriter.Write(c, err)
		return
	}

	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionFileDownload,
		Entity:   "file",
		EntityID: grant.FileID,
		Metadata: map[string]any{"mime": stored.MIME},
	}, auditUseCase.WithActor(grant.Subject))

	c.Header("Content-Type", stored.MIME)
	c.FileAttachment(stored.FullPath, grant.FileID+stored.Ext)
}

func (h *FileHandler) record(c *gin.Context, event auditDomain.Event, opts ...auditUseCase.Option) {
	info := auditUseCase.NewRequestInfo(c.Request, c.GetString("user_id"))
	h.recorder.Record(c.Request.Context(), info, event, opts...)
}
