package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/gradebook/internal/course"
	"github.com/hitoshi/gradebook/internal/middleware"
	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/repository"
)

// CourseServiceInterface は科目・クラスハンドラーが必要とするサービスインターフェース。
type CourseServiceInterface interface {
	ListCourses(ctx context.Context) ([]*model.Course, error)
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	CreateCourse(ctx context.Context, in course.CreateCourseInput) (*model.Course, error)
	ListSections(ctx context.Context, filter repository.SectionFilter) ([]*model.Section, error)
	GetSection(ctx context.Context, id int64) (*model.Section, error)
	CreateSection(ctx context.Context, in course.CreateSectionInput) (*model.Section, error)
	UpdateSection(ctx context.Context, id int64, in course.UpdateSectionInput, actor *model.Teacher) (*model.Section, error)
	DeleteSection(ctx context.Context, id int64, actor *model.Teacher) error
}

// CourseHandler は科目とクラスのHTTPハンドラー。
type CourseHandler struct {
	service CourseServiceInterface
}

// NewCourseHandler はCourseHandlerを生成する。
func NewCourseHandler(service CourseServiceInterface) *CourseHandler {
	return &CourseHandler{service: service}
}

type createCourseRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type createSectionRequest struct {
	Name      string `json:"name"`
	Capacity  *int   `json:"capacity"`
	CourseID  int64  `json:"course_id"`
	TeacherID int64  `json:"teacher_id"`
}

type updateSectionRequest struct {
	Name      *string `json:"name"`
	Capacity  *int    `json:"capacity"`
	CourseID  *int64  `json:"course_id"`
	TeacherID *int64  `json:"teacher_id"`
}

// ListCourses は科目一覧を返す。
// GET /courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

// CreateCourse は科目を作成する。
// POST /courses
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	c, err := h.service.CreateCourse(r.Context(), course.CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCourseResponse(c))
}

// GetCourse は科目情報を返す。
// GET /courses/{id}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	c, err := h.service.GetCourse(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(c))
}

// ListSections はクラス一覧を返す。course_idとteacher_idで絞り込める。
// GET /sections?course_id=&teacher_id=
func (h *CourseHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	courseID, apiErr := queryParamID(r, "course_id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	teacherID, apiErr := queryParamID(r, "teacher_id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	sections, err := h.service.ListSections(r.Context(), repository.SectionFilter{
		CourseID:  courseID,
		TeacherID: teacherID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSectionResponses(sections))
}

// CreateSection はクラスを作成する。
// POST /sections
func (h *CourseHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req createSectionRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.CreateSection(r.Context(), course.CreateSectionInput{
		Name:      req.Name,
		Capacity:  req.Capacity,
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSectionResponse(s))
}

// GetSection はクラス情報を返す。
// GET /sections/{id}
func (h *CourseHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.GetSection(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSectionResponse(s))
}

// UpdateSection はクラスを部分更新する。担当教員本人のみ実行できる。
// PATCH /sections/{id}
func (h *CourseHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TeacherFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var req updateSectionRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.UpdateSection(r.Context(), id, course.UpdateSectionInput{
		Name:      req.Name,
		Capacity:  req.Capacity,
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
	}, t)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSectionResponse(s))
}

// DeleteSection はクラスを削除する。担当教員本人のみ実行できる。
// DELETE /sections/{id}
func (h *CourseHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TeacherFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.service.DeleteSection(r.Context(), id, t); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
