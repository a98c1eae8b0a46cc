package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/gradebook/internal/middleware"
	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/student"
)

// StudentServiceInterface は生徒ハンドラーが必要とするサービスインターフェース。
type StudentServiceInterface interface {
	List(ctx context.Context) ([]*model.Student, error)
	Get(ctx context.Context, id int64) (*model.Student, error)
	Create(ctx context.Context, in student.CreateInput) (*model.Student, error)
	Update(ctx context.Context, id int64, in student.UpdateInput) (*model.Student, error)
	Delete(ctx context.Context, id int64) error
	ResetPassword(ctx context.Context, id int64) (*student.ResetResult, error)
}

// StudentHandler は生徒管理のHTTPハンドラー。
type StudentHandler struct {
	service StudentServiceInterface
}

// NewStudentHandler はStudentHandlerを生成する。
func NewStudentHandler(service StudentServiceInterface) *StudentHandler {
	return &StudentHandler{service: service}
}

type createStudentRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Password  *string `json:"password"`
}

type updateStudentRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// ListStudents は生徒一覧を返す。
// GET /students
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponses(students))
}

// CreateStudent は生徒を作成する。
// POST /students
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.Create(r.Context(), student.CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentResponse(s))
}

// GetStudent は生徒情報を返す。
// GET /students/{id}
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(s))
}

// UpdateStudent は生徒情報を部分更新する。
// PATCH /students/{id}
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var req updateStudentRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.Update(r.Context(), id, student.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(s))
}

// DeleteStudent は生徒を削除する。
// DELETE /students/{id}
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me は認証済み生徒自身の情報を返す。
// GET /students/me
func (h *StudentHandler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.StudentFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(s))
}

// ResetPassword は生徒の一時パスワードを発行する。平文は一度だけレスポンスに含める。
// POST /students/{id}/reset-password
func (h *StudentHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	result, err := h.service.ResetPassword(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetPasswordResponse{
		StudentID:   result.StudentID,
		NewPassword: result.NewPassword,
	})
}
