package handlers

import "github.com/gofiber/fiber/v2"

// Handlers bundles every route handler of the API.
type Handlers struct {
	Health        *HealthHandler
	Teachers      *TeacherHandler
	StudentGroups *StudentGroupHandler
	Subjects      *SubjectHandler
	Classrooms    *ClassroomHandler
	Lessons       *LessonHandler
}

// RegisterRoutes mounts the API under router, normally the /api/v1 group.
// mw runs in front of the entity collections only; the health check bypasses it.
func RegisterRoutes(router fiber.Router, h Handlers, mw ...fiber.Handler) {
	router.Get("/utils/health-check", h.Health.Check)

	h.Teachers.Register(router.Group("/teachers", mw...))
	h.StudentGroups.Register(router.Group("/student-groups", mw...))
	h.Subjects.Register(router.Group("/subjects", mw...))
	h.Classrooms.Register(router.Group("/classrooms", mw...))
	h.Lessons.Register(router.Group("/lessons", mw...))
}
