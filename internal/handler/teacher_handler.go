package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/gradebook/internal/middleware"
	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/teacher"
)

// TeacherServiceInterface は教員ハンドラーが必要とするサービスインターフェース。
type TeacherServiceInterface interface {
	List(ctx context.Context) ([]*model.Teacher, error)
	Get(ctx context.Context, id int64) (*model.Teacher, error)
	Create(ctx context.Context, in teacher.CreateInput, actor *model.Teacher) (*model.Teacher, error)
	ListSections(ctx context.Context, teacherID int64) ([]*model.Section, error)
}

// TeacherHandler は教員管理のHTTPハンドラー。
type TeacherHandler struct {
	service TeacherServiceInterface
}

// NewTeacherHandler はTeacherHandlerを生成する。
func NewTeacherHandler(service TeacherServiceInterface) *TeacherHandler {
	return &TeacherHandler{service: service}
}

type createTeacherRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Subject   string  `json:"subject"`
	Password  *string `json:"password"`
}

// ListTeachers は教員一覧を返す。
// GET /teachers
func (h *TeacherHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeacherResponses(teachers))
}

// CreateTeacher は教員を作成する。最初の1人を除き教員トークンが必要。
// POST /teachers
func (h *TeacherHandler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.TeacherFromContext(r.Context())

	var req createTeacherRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	t, err := h.service.Create(r.Context(), teacher.CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Subject:   model.Subject(req.Subject),
		Password:  req.Password,
	}, actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeacherResponse(t))
}

// GetTeacher は教員情報を返す。
// GET /teachers/{id}
func (h *TeacherHandler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeacherResponse(t))
}

// Me は認証済み教員自身の情報を返す。
// GET /teachers/me
func (h *TeacherHandler) Me(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TeacherFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, toTeacherResponse(t))
}

// MySections は認証済み教員の担当クラス一覧を返す。
// GET /teachers/me/sections
func (h *TeacherHandler) MySections(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TeacherFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	sections, err := h.service.ListSections(r.Context(), t.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSectionResponses(sections))
}
