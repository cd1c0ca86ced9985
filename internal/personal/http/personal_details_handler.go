// Package http provides HTTP handlers for personal-details operations.
// Submitted fields are encrypted before storage; responses carry decrypted
// views. Every mutation is recorded on the audit trail.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	auditUseCase "github.com/guardianlk/guardian/internal/audit/usecase"
	apperrors "github.com/guardianlk/guardian/internal/errors"
	"github.com/guardianlk/guardian/internal/httputil"
	"github.com/guardianlk/guardian/internal/personal/http/dto"
	personalUseCase "github.com/guardianlk/guardian/internal/personal/usecase"
)

// PersonalDetailsHandler handles HTTP requests for personal-details
// operations.
type PersonalDetailsHandler struct {
	useCase     personalUseCase.PersonalDetailsUseCase
	recorder    *auditUseCase.Recorder
	errorWriter *httputil.ErrorWriter
}

// NewPersonalDetailsHandler creates a new personal-details handler with
// required dependencies.
func NewPersonalDetailsHandler(
	useCase personalUseCase.PersonalDetailsUseCase,
	recorder *auditUseCase.Recorder,
	errorWriter *httputil.ErrorWriter,
) *PersonalDetailsHandler {
	return &PersonalDetailsHandler{
		useCase:     useCase,
		recorder:    recorder,
		errorWriter: errorWriter,
	}
}

// CreateHandler creates a free-standing personal-details row.
// POST /v1/personal-details
// Returns 201 Created with the decrypted view.
func (h *PersonalDetailsHandler) CreateHandler(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	details, err := h.useCase.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}

	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionPersonalDetailsCreate,
		Entity:   "personal_details",
		EntityID: strconv.FormatInt(details.ID, 10),
	})
	c.JSON(http.StatusCreated, dto.MapPersonalDetailsToResponse(details))
}

// CreateReportWitnessHandler attaches a new witness to a report.
// POST /v1/reports/:reportId/witnesses
// Returns 201 Created with the decrypted view.
func (h *PersonalDetailsHandler) CreateReportWitnessHandler(c *gin.Context) {
	reportID, ok := h.pathID(c, "reportId")
	if !ok {
		return
	}
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	details, err := h.useCase.CreateReportWitness(c.Request.Context(), req.ToInput(), reportID)
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}

	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionWitnessCreate,
		Entity:   "personal_details",
		EntityID: strconv.FormatInt(details.ID, 10),
		Metadata: map[string]any{"report_id": reportID},
	})
	c.JSON(http.StatusCreated, dto.MapPersonalDetailsToResponse(details))
}

// ListReportWitnessesHandler lists the witnesses attached to a report.
// GET /v1/reports/:reportId/witnesses
// Returns 200 OK with decrypted views.
func (h *PersonalDetailsHandler) ListReportWitnessesHandler(c *gin.Context) {
	reportID, ok := h.pathID(c, "reportId")
	if !ok {
		return
	}

	rows, err := h.useCase.FindByReportID(c.Request.Context(), reportID)
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapPersonalDetailsToListResponse(rows))
}

// DeleteReportWitnessHandler removes one witness from a report.
// DELETE /v1/reports/:reportId/witnesses/:witnessId
// Returns 204 No Content, or 404 when no row matched both identifiers.
func (h *PersonalDetailsHandler) DeleteReportWitnessHandler(c *gin.Context) {
	reportID, ok := h.pathID(c, "reportId")
	if !ok {
		return
	}
	witnessID, ok := h.pathID(c, "witnessId")
	if !ok {
		return
	}

	deleted, err := h.useCase.DeleteReportWitness(c.Request.Context(), reportID, witnessID)
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}
	if !deleted {
		h.errorWriter.Write(c, apperrors.ErrNotFound)
		return
	}

	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionWitnessDelete,
		Entity:   "personal_details",
		EntityID: strconv.FormatInt(witnessID, 10),
		Metadata: map[string]any{"report_id": reportID},
	})
	c.Status(http.StatusNoContent)
}

// CreateLostArticleDetailsHandler attaches claimant details to a lost article.
// POST /v1/lost-articles/:lostArticleId/personal-details
// Returns 201 Created with the decrypted view.
func (h *PersonalDetailsHandler) CreateLostArticleDetailsHandler(c *gin.Context) {
	lostArticleID, ok := h.pathID(c, "lostArticleId")
	if !ok {
		return
	}
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	details, err := h.useCase.CreateLostArticleDetails(c.Request.Context(), req.ToInput(), lostArticleID)
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}

	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionLostArticleDetailsCreate,
		Entity:   "personal_details",
		EntityID: strconv.FormatInt(details.ID, 10),
		Metadata: map[string]any{"lost_article_id": lostArticleID},
	})
	c.JSON(http.StatusCreated, dto.MapPersonalDetailsToResponse(details))
}

// ListLostArticleDetailsHandler lists the claimant details of a lost article.
// GET /v1/lost-articles/:lostArticleId/personal-details
// Returns 200 OK with decrypted views.
func (h *PersonalDetailsHandler) ListLostArticleDetailsHandler(c *gin.Context) {
	lostArticleID, ok := h.pathID(c, "lostArticleId")
	if !ok {
		return
	}

	rows, err := h.useCase.FindByLostArticleID(c.Request.Context(), lostArticleID)
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapPersonalDetailsToListResponse(rows))
}

// DeleteLostArticleDetailsHandler removes claimant details from a lost article.
// DELETE /v1/lost-articles/:lostArticleId/personal-details/:detailsId
// Returns 204 No Content, or 404 when no row matched both identifiers.
func (h *PersonalDetailsHandler) DeleteLostArticleDetailsHandler(c *gin.Context) {
	lostArticleID, ok := h.pathID(c, "lostArticleId")
	if !ok {
		return
	}
	detailsID, ok := h.pathID(c, "detailsId")
	if !ok {
		return
	}

	deleted, err := h.useCase.DeleteLostArticleDetails(c.Request.Context(), lostArticleID, detailsID)
	if err != nil {
		h.errorWriter.Write(c, err)
		return
	}
	if !deleted {
		h.errorWriter.Write(c, apperrors.ErrNotFound)
		return
	}

	h.record(c, auditDomain.Event{
		Action:   auditDomain.ActionLostArticleDetailsDelete,
		Entity:   "personal_details",
		EntityID: strconv.FormatInt(detailsID, 10),
		Metadata: map[string]any{"lost_article_id": lostArticleID},
	})
	c.Status(http.StatusNoContent)
}

func (h *PersonalDetailsHandler) bindRequest(c *gin.Context) (*dto.CreatePersonalDetailsRequest, bool) {
	var req dto.CreatePersonalDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorWriter.Write(c, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error()))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		h.errorWriter.Write(c, err)
		return nil, false
	}
	return &req, true
}

func (h *PersonalDetailsHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.errorWriter.Write(c, apperrors.Wrap(apperrors.ErrInvalidInput, name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *PersonalDetailsHandler) record(c *gin.Context, event auditDomain.Event) {
	info := auditUseCase.NewRequestInfo(c.Request, c.GetString("user_id"))
	h.recorder.Record(c.Request.Context(), info, event)
}
