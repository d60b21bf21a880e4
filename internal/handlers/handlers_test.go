package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnme/school-schedule/internal/apperr"
	"github.com/unnme/school-schedule/internal/handlers"
	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/validation"
)

// fakeSubjects is an in-memory subject service.
type fakeSubjects struct {
	items   map[int]*models.Subject
	nextID  int
	lastReq models.SubjectRequest
	page    models.Pagination
	err     error
}

func newFakeSubjects() *fakeSubjects {
	return &fakeSubjects{items: map[int]*models.Subject{}, nextID: 1}
}

func (f *fakeSubjects) Create(ctx context.Context, req models.SubjectRequest) (*models.Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastReq = req
	s := &models.Subject{ID: f.nextID, Name: req.Name, Teachers: []models.SubjectTeacher{}}
	f.items[s.ID] = s
	f.nextID++
	return s, nil
}

func (f *fakeSubjects) Get(ctx context.Context, id int) (*models.Subject, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "subject", ID: id}
	}
	return s, nil
}

func (f *fakeSubjects) List(ctx context.Context, page models.Pagination) (*models.ListResponse[models.Subject], error) {
	f.page = page
	out := &models.ListResponse[models.Subject]{Items: []models.Subject{}, Total: len(f.items), Limit: page.Limit, Offset: page.Offset}
	for id := 1; id < f.nextID; id++ {
		if s, ok := f.items[id]; ok {
			out.Items = append(out.Items, *s)
		}
	}
	return out, nil
}

func (f *fakeSubjects) Update(ctx context.Context, id int, req models.SubjectRequest) (*models.Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Name = req.Name
	return s, nil
}

func (f *fakeSubjects) Delete(ctx context.Context, id int) (*models.Subject, error) {
	s, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(f.items, id)
	return s, nil
}

func newApp(register func(fiber.Router)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zerolog.Nop())})
	register(app.Group("/api/v1"))
	return app
}

func subjectApp(svc *fakeSubjects) *fiber.App {
	h := handlers.NewResource[models.Subject, models.SubjectRequest, models.SubjectRequest](svc, validation.New(), 100)
	return newApp(func(r fiber.Router) { h.Register(r.Group("/subjects")) })
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestResource_CreateAndGet(t *testing.T) {
	svc := newFakeSubjects()
	app := subjectApp(svc)

	resp, body := do(t, app, fiber.MethodPost, "/api/v1/subjects/", `{"name":"Математика"}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Математика", svc.lastReq.Name)

	resp, body = do(t, app, fiber.MethodGet, "/api/v1/subjects/1", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Математика", body["name"])
}

func TestResource_CreateRejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"malformed json", `{"name":`, "body"},
		{"missing name", `{}`, "name"},
		{"name too short", `{"name":"М"}`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeSubjects()
			resp, body := do(t, subjectApp(svc), fiber.MethodPost, "/api/v1/subjects", tt.body)

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			require.NotEmpty(t, body["errors"])
			first := body["errors"].([]any)[0].(map[string]any)
			assert.Equal(t, tt.field, first["field"])
			assert.Empty(t, svc.items, "service must not be called")
		})
	}
}

func TestResource_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"duplicate peer", &apperr.DuplicatePeerError{Peer: "subject", IDs: []int{2}}, 400, "duplicate subject ids in request: 2"},
		{"invalid peer", &apperr.InvalidPeerError{Peer: "subject", IDs: []int{999}}, 400, "invalid subject ids: 999"},
		{"duplicate name", &apperr.DuplicateNameError{Entity: "subject", Name: "Физика"}, 409, `subject "Физика" already exists`},
		{"wrapped not found", fmt.Errorf("create subject: %w", &apperr.NotFoundError{Entity: "subject", ID: 3}), 404, "subject with id 3 not found"},
		{"unique violation", &pgconn.PgError{Code: "23505"}, 409, "resource already exists"},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, 400, "referenced resource does not exist"},
		{"unexpected", errors.New("connection reset"), 500, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeSubjects()
			svc.err = tt.err

			resp, body := do(t, subjectApp(svc), fiber.MethodPost, "/api/v1/subjects", `{"name":"Физика"}`)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.detail, body["detail"])
		})
	}
}

func TestResource_UpdateAndDelete(t *testing.T) {
	svc := newFakeSubjects()
	svc.items[1] = &models.Subject{ID: 1, Name: "Физика"}
	svc.nextID = 2
	app := subjectApp(svc)

	resp, body := do(t, app, fiber.MethodPut, "/api/v1/subjects/1", `{"name":"Химия"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Химия", body["name"])

	resp, body = do(t, app, fiber.MethodDelete, "/api/v1/subjects/1", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Химия", body["name"], "delete returns the snapshot")

	resp, _ = do(t, app, fiber.MethodGet, "/api/v1/subjects/1", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestResource_BadID(t *testing.T) {
	app := subjectApp(newFakeSubjects())

	for _, path := range []string{"/api/v1/subjects/abc", "/api/v1/subjects/0", "/api/v1/subjects/-4"} {
		resp, _ := do(t, app, fiber.MethodGet, path, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestResource_ListPagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		svc := newFakeSubjects()
		resp, body := do(t, subjectApp(svc), fiber.MethodGet, "/api/v1/subjects", "")

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, models.Pagination{Limit: 100}, svc.page)
		assert.Equal(t, float64(0), body["total"])
	})

	t.Run("explicit", func(t *testing.T) {
		svc := newFakeSubjects()
		resp, _ := do(t, subjectApp(svc), fiber.MethodGet, "/api/v1/subjects?offset=10&limit=5&order_by=name&desc=true", "")

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, models.Pagination{Offset: 10, Limit: 5, OrderBy: "name", Desc: true}, svc.page)
	})

	for _, query := range []string{"offset=-1", "limit=0", "limit=101", "limit=ten", "desc=maybe"} {
		t.Run("rejects "+query, func(t *testing.T) {
			resp, _ := do(t, subjectApp(newFakeSubjects()), fiber.MethodGet, "/api/v1/subjects?"+query, "")
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

// fakeLessons serves a single stored lesson.
type fakeLessons struct {
	lesson models.Lesson
}

func (f *fakeLessons) Create(ctx context.Context, req models.LessonRequest) (*models.Lesson, error) {
	return &f.lesson, nil
}

func (f *fakeLessons) Get(ctx context.Context, id int) (*models.Lesson, error) {
	return &f.lesson, nil
}

func (f *fakeLessons) List(ctx context.Context, page models.Pagination) (*models.ListResponse[models.Lesson], error) {
	return &models.ListResponse[models.Lesson]{Items: []models.Lesson{f.lesson}, Total: 1, Limit: page.Limit}, nil
}

func (f *fakeLessons) Update(ctx context.Context, id int, req models.LessonRequest) (*models.Lesson, error) {
	return &f.lesson, nil
}

func (f *fakeLessons) Delete(ctx context.Context, id int) (*models.Lesson, error) {
	return &f.lesson, nil
}

// TestLessonRendering verifies lessons are rendered with date and weekday in both
// single and list responses.
func TestLessonRendering(t *testing.T) {
	svc := &fakeLessons{lesson: models.Lesson{
		ID:          1,
		LessonDate:  time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
		SchoolShift: 1,
		ClassroomID: 4, SubjectID: 5, TeacherID: 6, StudentGroupID: 7,
	}}

	h := handlers.NewLessonHandler(svc, validation.New(), 100)
	app := newApp(func(r fiber.Router) { h.Register(r.Group("/lessons")) })

	_, list := do(t, app, fiber.MethodGet, "/api/v1/lessons", "")
	items := list["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "monday", items[0].(map[string]any)["lesson_day"])

	_, body := do(t, app, fiber.MethodGet, "/api/v1/lessons/1", "")
	assert.Equal(t, "2024-09-02", body["lesson_date"])
	assert.Equal(t, "monday", body["lesson_day"])
	assert.Equal(t, float64(7), body["student_group"])
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := handlers.NewHealthHandler(fakePinger{})
		app := newApp(func(r fiber.Router) { r.Get("/utils/health-check", h.Check) })

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/utils/health-check/", nil))
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "true", string(raw))
	})

	t.Run("database down", func(t *testing.T) {
		h := handlers.NewHealthHandler(fakePinger{err: errors.New("connection refused")})
		app := newApp(func(r fiber.Router) { r.Get("/utils/health-check", h.Check) })

		resp, body := do(t, app, fiber.MethodGet, "/api/v1/utils/health-check", "")
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "database unavailable", body["detail"])
	})
}
