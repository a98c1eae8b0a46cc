package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/gradebook/internal/middleware"
	"github.com/hitoshi/gradebook/internal/model"
)

// EnrollmentServiceInterface は履修ハンドラーが必要とするサービスインターフェース。
type EnrollmentServiceInterface interface {
	Enroll(ctx context.Context, studentID, sectionID int64) (*model.Enrollment, error)
	Unenroll(ctx context.Context, enrollmentID int64) error
	ListSectionsForStudent(ctx context.Context, studentID int64) ([]*model.Section, error)
	ListStudentsForSection(ctx context.Context, sectionID int64) ([]*model.Student, error)
	RosterWithGrades(ctx context.Context, sectionID int64) ([]rosterEntryResponse, error)
	ClassesWithGrades(ctx context.Context, studentID int64) ([]classWithGradeResponse, error)
	UpdateGrade(ctx context.Context, enrollmentID int64, grade *string, teacher *model.Teacher) (*model.Enrollment, error)
}

// EnrollmentHandler は履修登録と成績のHTTPハンドラー。
type EnrollmentHandler struct {
	service EnrollmentServiceInterface
}

// NewEnrollmentHandler はEnrollmentHandlerを生成する。
func NewEnrollmentHandler(service EnrollmentServiceInterface) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

type selfEnrollRequest struct {
	SectionID int64 `json:"section_id"`
}

type enrollRequest struct {
	StudentID int64 `json:"student_id"`
	SectionID int64 `json:"section_id"`
}

// updateGradeRequest はgradeキーの有無を判別するためRawMessageで受ける。
type updateGradeRequest struct {
	Grade json.RawMessage `json:"grade"`
}

// EnrollSelf は認証済み生徒自身をクラスに登録する。
// POST /students/me/enrollments
func (h *EnrollmentHandler) EnrollSelf(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.StudentFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	var req selfEnrollRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if req.SectionID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("section_id must be a positive integer"))
		return
	}

	e, err := h.service.Enroll(r.Context(), s.ID, req.SectionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEnrollmentResponse(e))
}

// Enroll は教員が任意の生徒をクラスに登録する。
// POST /enrollments
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if req.StudentID <= 0 || req.SectionID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("student_id and section_id must be positive integers"))
		return
	}

	e, err := h.service.Enroll(r.Context(), req.StudentID, req.SectionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEnrollmentResponse(e))
}

// Unenroll は履修を削除する。
// DELETE /enrollments/{id}
func (h *EnrollmentHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.service.Unenroll(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListForStudent は生徒が履修しているクラス一覧を返す。
// GET /enrollments/student/{id}
func (h *EnrollmentHandler) ListForStudent(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	sections, err := h.service.ListSectionsForStudent(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSectionResponses(sections))
}

// ListForSection はクラスに登録されている生徒一覧を返す。
// GET /enrollments/section/{id}
func (h *EnrollmentHandler) ListForSection(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	students, err := h.service.ListStudentsForSection(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponses(students))
}

// Roster はクラス名簿を履修IDと成績付きで返す。
// GET /sections/{id}/roster
func (h *EnrollmentHandler) Roster(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	roster, err := h.service.RosterWithGrades(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// UpdateGrade は履修の成績を設定またはクリアする。
// PUT /enrollments/{id}/grade
//
// ボディは {"grade": "A"} または {"grade": null}。gradeキーの省略は不正リクエストとなる。
func (h *EnrollmentHandler) UpdateGrade(w http.ResponseWriter, r *http.Request) {
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

	var req updateGradeRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	grade, apiErr := parseGrade(req.Grade)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	e, err := h.service.UpdateGrade(r.Context(), id, grade, t)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollmentResponse(e))
}

// MyClasses は認証済み生徒の履修クラスを成績付きで返す。
// GET /students/me/classes-with-grades
func (h *EnrollmentHandler) MyClasses(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.StudentFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}
	h.writeClasses(w, r, s.ID)
}

// StudentClasses は指定した生徒の履修クラスを成績付きで返す。教員向け。
// GET /students/{id}/classes-with-grades
func (h *EnrollmentHandler) StudentClasses(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlParamID(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	h.writeClasses(w, r, id)
}

func (h *EnrollmentHandler) writeClasses(w http.ResponseWriter, r *http.Request, studentID int64) {
	classes, err := h.service.ClassesWithGrades(r.Context(), studentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// parseGrade はgradeフィールドを解釈する。nullはクリア指定としてnilを返す。
func parseGrade(raw json.RawMessage) (*string, *model.APIError) {
	if len(raw) == 0 {
		return nil, model.NewInvalidRequestError("grade is required")
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var grade string
	if err := json.Unmarshal(raw, &grade); err != nil {
		return nil, model.NewInvalidRequestError("grade must be a string or null")
	}
	return &grade, nil
}
