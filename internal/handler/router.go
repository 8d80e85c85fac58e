package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Rishi9822/timetable-organizer-api/internal/middleware"
	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	"github.com/Rishi9822/timetable-organizer-api/internal/service"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *AuthHandler
	Timetable   *TimetableHandler
	Class       *ClassHandler
	Teacher     *TeacherHandler
	Subject     *SubjectHandler
	Institution *InstitutionHandler
}

// RegisterRoutes mounts the API under the given prefix. Reads require a
// valid token; writes additionally require the ADMIN or SCHEDULER role.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, authService *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("", middleware.JWT(authService))
	secured.GET("/auth/me", h.Auth.Me)

	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler)
	admins := middleware.RequireRoles(models.RoleAdmin)

	secured.GET("/institution", h.Institution.Get)
	secured.PUT("/institution/working-days", admins, h.Institution.UpdateWorkingDays)

	secured.GET("/classes", h.Class.List)
	secured.POST("/classes", writers, h.Class.Create)
	secured.GET("/classes/:id", h.Class.Get)
	secured.PUT("/classes/:id", writers, h.Class.Update)
	secured.DELETE("/classes/:id", writers, h.Class.Delete)

	secured.GET("/classes/:id/timetable", h.Timetable.Get)
	secured.PUT("/classes/:id/timetable", writers, h.Timetable.Save)
	secured.POST("/classes/:id/timetable/publish", writers, h.Timetable.Publish)
	secured.GET("/classes/:id/timetable/conflicts", h.Timetable.Conflicts)
	secured.GET("/classes/:id/timetable/export.pdf", h.Timetable.ExportPDF)

	secured.GET("/timetables", h.Timetable.ListAll)
	secured.GET("/availability", h.Timetable.Availability)

	secured.GET("/teachers", h.Teacher.List)
	secured.POST("/teachers", writers, h.Teacher.Create)
	secured.GET("/teachers/:id", h.Teacher.Get)
	secured.PUT("/teachers/:id", writers, h.Teacher.Update)
	secured.DELETE("/teachers/:id", writers, h.Teacher.Delete)

	secured.GET("/subjects", h.Subject.List)
	secured.POST("/subjects", writers, h.Subject.Create)
	secured.GET("/subjects/:id", h.Subject.Get)
	secured.PUT("/subjects/:id", writers, h.Subject.Update)
	secured.DELETE("/subjects/:id", writers, h.Subject.Delete)
}
