package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rishi9822/timetable-organizer-api/internal/service"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
	"github.com/Rishi9822/timetable-organizer-api/pkg/response"
)

// TimetableHandler exposes timetable store, lifecycle and query endpoints.
type TimetableHandler struct {
	timetables   *service.TimetableService
	conflicts    *service.ConflictService
	availability *service.AvailabilityService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(timetables *service.TimetableService, conflicts *service.ConflictService, availability *service.AvailabilityService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, conflicts: conflicts, availability: availability}
}

// Get godoc
// @Summary Get class timetable
// @Description Returns the draft timetable when one exists, otherwise the published one, otherwise an empty scaffold
// @Tags Timetables
// @Produce json
// @Param id path string true "Class ID"
// @Param academicYear query string false "Academic year, defaults to the current one"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.timetables.Load(c.Request.Context(), c.Param("id"), c.Query("academicYear"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Save godoc
// @Summary Save class timetable draft
// @Description Overwrites the draft timetable for the class and academic year
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.SaveTimetableRequest true "Timetable payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/timetable [put]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req service.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}

	timetable, err := h.timetables.Save(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Publish godoc
// @Summary Publish class timetable draft
// @Description Promotes the current draft to published, superseding any prior published version
// @Tags Timetables
// @Produce json
// @Param id path string true "Class ID"
// @Param academicYear query string false "Academic year, defaults to the current one"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/timetable/publish [post]
func (h *TimetableHandler) Publish(c *gin.Context) {
	timetable, err := h.timetables.Publish(c.Request.Context(), c.Param("id"), c.Query("academicYear"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Conflicts godoc
// @Summary Check class timetable for conflicts
// @Description Scans the class timetable against every other timetable of the institution and year
// @Tags Timetables
// @Produce json
// @Param id path string true "Class ID"
// @Param academicYear query string false "Academic year, defaults to the current one"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/timetable/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	report, err := h.conflicts.CheckClass(c.Request.Context(), c.Param("id"), c.Query("academicYear"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListAll godoc
// @Summary List all timetables
// @Description Returns the best available timetable of every class in the institution for the academic year
// @Tags Timetables
// @Produce json
// @Param academicYear query string false "Academic year, defaults to the current one"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) ListAll(c *gin.Context) {
	timetables, err := h.timetables.ListAll(c.Request.Context(), c.Query("academicYear"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetables, nil)
}

// Availability godoc
// @Summary Check teacher availability
// @Description Answers whether a teacher is free at a given day and period, with the blocking slot when not
// @Tags Timetables
// @Produce json
// @Param teacherId query string true "Teacher ID"
// @Param day query string true "Weekday name"
// @Param period query int true "Period number"
// @Param academicYear query string false "Academic year, defaults to the current one"
// @Param excludeClassId query string false "Class whose own slots are ignored"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability [get]
func (h *TimetableHandler) Availability(c *gin.Context) {
	period, err := strconv.Atoi(c.Query("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period must be a number"))
		return
	}

	result, err := h.availability.Check(
		c.Request.Context(),
		c.Query("academicYear"),
		c.Query("teacherId"),
		strings.TrimSpace(c.Query("day")),
		period,
		c.Query("excludeClassId"),
		claimsFromContext(c),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportPDF godoc
// @Summary Export class timetable as PDF
// @Tags Timetables
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Param academicYear query string false "Academic year, defaults to the current one"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/timetable/export.pdf [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	payload, filename, err := h.timetables.ExportPDF(c.Request.Context(), c.Param("id"), c.Query("academicYear"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
