package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rishi9822/timetable-organizer-api/internal/service"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
	"github.com/Rishi9822/timetable-organizer-api/pkg/response"
)

// InstitutionHandler exposes institution configuration endpoints.
type InstitutionHandler struct {
	service *service.InstitutionService
}

// NewInstitutionHandler constructs an institution handler.
func NewInstitutionHandler(svc *service.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{service: svc}
}

// Get godoc
// @Summary Get current institution
// @Tags Institution
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institution [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	institution, err := h.service.Get(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institution, nil)
}

// UpdateWorkingDays godoc
// @Summary Update institution working days
// @Tags Institution
// @Accept json
// @Produce json
// @Param payload body service.UpdateWorkingDaysRequest true "Working days"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /institution/working-days [put]
func (h *InstitutionHandler) UpdateWorkingDays(c *gin.Context) {
	var req service.UpdateWorkingDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	institution, err := h.service.UpdateWorkingDays(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institution, nil)
}
