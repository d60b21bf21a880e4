package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/validation"
)

// Service is the CRUD surface every entity manager in the services package exposes.
// C and U are the create and update request bodies.
type Service[T, C, U any] interface {
	Create(ctx context.Context, req C) (*T, error)
	Get(ctx context.Context, id int) (*T, error)
	List(ctx context.Context, page models.Pagination) (*models.ListResponse[T], error)
	Update(ctx context.Context, id int, req U) (*T, error)
	Delete(ctx context.Context, id int) (*T, error)
}

// Resource serves the five REST endpoints of one entity collection.
type Resource[T, C, U any] struct {
	svc      Service[T, C, U]
	validate *validation.Validator
	maxLimit int
	render   func(*T) any
}

// NewResource creates a handler for svc. maxLimit caps the page size of List.
func NewResource[T, C, U any](svc Service[T, C, U], v *validation.Validator, maxLimit int) *Resource[T, C, U] {
	return &Resource[T, C, U]{
		svc:      svc,
		validate: v,
		maxLimit: maxLimit,
		render:   func(item *T) any { return item },
	}
}

// TeacherHandler serves /teachers.
type TeacherHandler = Resource[models.Teacher, models.TeacherCreateRequest, models.TeacherUpdateRequest]

// StudentGroupHandler serves /student-groups.
type StudentGroupHandler = Resource[models.StudentGroup, models.StudentGroupRequest, models.StudentGroupRequest]

// SubjectHandler serves /subjects.
type SubjectHandler = Resource[models.Subject, models.SubjectRequest, models.SubjectRequest]

// ClassroomHandler serves /classrooms.
type ClassroomHandler = Resource[models.Classroom, models.ClassroomRequest, models.ClassroomRequest]

// LessonHandler serves /lessons.
type LessonHandler = Resource[models.Lesson, models.LessonRequest, models.LessonRequest]

func NewTeacherHandler(m Service[models.Teacher, models.TeacherCreateRequest, models.TeacherUpdateRequest], v *validation.Validator, maxLimit int) *TeacherHandler {
	return NewResource[models.Teacher, models.TeacherCreateRequest, models.TeacherUpdateRequest](m, v, maxLimit)
}

func NewStudentGroupHandler(m Service[models.StudentGroup, models.StudentGroupRequest, models.StudentGroupRequest], v *validation.Validator, maxLimit int) *StudentGroupHandler {
	return NewResource[models.StudentGroup, models.StudentGroupRequest, models.StudentGroupRequest](m, v, maxLimit)
}

func NewSubjectHandler(m Service[models.Subject, models.SubjectRequest, models.SubjectRequest], v *validation.Validator, maxLimit int) *SubjectHandler {
	return NewResource[models.Subject, models.SubjectRequest, models.SubjectRequest](m, v, maxLimit)
}

func NewClassroomHandler(m Service[models.Classroom, models.ClassroomRequest, models.ClassroomRequest], v *validation.Validator, maxLimit int) *ClassroomHandler {
	return NewResource[models.Classroom, models.ClassroomRequest, models.ClassroomRequest](m, v, maxLimit)
}

// NewLessonHandler renders lessons with their date and weekday split out.
func NewLessonHandler(m Service[models.Lesson, models.LessonRequest, models.LessonRequest], v *validation.Validator, maxLimit int) *LessonHandler {
	h := NewResource[models.Lesson, models.LessonRequest, models.LessonRequest](m, v, maxLimit)
	h.render = func(l *models.Lesson) any { return l.View() }
	return h
}

// Register mounts the collection routes on router.
func (r *Resource[T, C, U]) Register(router fiber.Router) {
	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/:id", r.Get)
	router.Put("/:id", r.Update)
	router.Delete("/:id", r.Delete)
}

// List handles GET /. Query: offset, limit, order_by, desc.
func (r *Resource[T, C, U]) List(c *fiber.Ctx) error {
	page, err := parsePagination(c, r.maxLimit)
	if err != nil {
		return err
	}

	result, err := r.svc.List(c.UserContext(), page)
	if err != nil {
		return err
	}

	items := make([]any, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, r.render(&result.Items[i]))
	}

	return c.JSON(models.ListResponse[any]{
		Items:  items,
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	})
}

// Get handles GET /:id.
func (r *Resource[T, C, U]) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	item, err := r.svc.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(r.render(item))
}

// Create handles POST / and answers 201 with the stored entity.
func (r *Resource[T, C, U]) Create(c *fiber.Ctx) error {
	var req C
	if err := bind(c, r.validate, &req); err != nil {
		return err
	}

	item, err := r.svc.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(r.render(item))
}

// Update handles PUT /:id.
func (r *Resource[T, C, U]) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req U
	if err := bind(c, r.validate, &req); err != nil {
		return err
	}

	item, err := r.svc.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(r.render(item))
}

// Delete handles DELETE /:id and returns the entity as it was before removal.
func (r *Resource[T, C, U]) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	item, err := r.svc.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(r.render(item))
}
