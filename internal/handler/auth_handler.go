// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/gradebook/internal/auth"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginStudent(ctx context.Context, studentID int64, password string) (*auth.AccessToken, error)
	LoginTeacher(ctx context.Context, teacherID int64, password string) (*auth.AccessToken, error)
}

// AuthHandler はパスワードログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type studentLoginRequest struct {
	StudentID int64  `json:"student_id"`
	Password  string `json:"password"`
}

type teacherLoginRequest struct {
	TeacherID int64  `json:"teacher_id"`
	Password  string `json:"password"`
}

// StudentLogin は生徒のログインを処理する。
// POST /auth/login
func (h *AuthHandler) StudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	token, err := h.service.LoginStudent(r.Context(), req.StudentID, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(token))
}

// TeacherLogin は教員のログインを処理する。
// POST /auth/teacher-login
func (h *AuthHandler) TeacherLogin(w http.ResponseWriter, r *http.Request) {
	var req teacherLoginRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	token, err := h.service.LoginTeacher(r.Context(), req.TeacherID, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(token))
}
