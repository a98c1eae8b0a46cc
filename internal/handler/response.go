package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/gradebook/internal/auth"
	"github.com/hitoshi/gradebook/internal/middleware"
	"github.com/hitoshi/gradebook/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限サイズ。
const maxRequestBodyBytes = 64 << 10

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットのレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		middleware.WriteUnauthorized(w)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeStudentNotFound, model.ErrCodeTeacherNotFound, model.ErrCodeCourseNotFound,
		model.ErrCodeSectionNotFound, model.ErrCodeEnrollmentNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEnrollment:
		return http.StatusConflict
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidGrade:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody はリクエストボディをvにデコードする。
// 未知のフィールドや複数のJSON値を含むボディは拒否する。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) *model.APIError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.NewInvalidRequestError("リクエストボディの解析に失敗しました")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return model.NewInvalidRequestError("リクエストボディに余分なデータがあります")
	}
	return nil
}

// urlParamID はURLパラメータを正の整数IDとして取り出す。
func urlParamID(r *http.Request, name string) (int64, *model.APIError) {
	return parseID(chi.URLParam(r, name), name)
}

// queryParamID は省略可能なクエリパラメータを正の整数IDとして取り出す。
// 未指定の場合はnilを返す。
func queryParamID(r *http.Request, name string) (*int64, *model.APIError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, apiErr := parseID(raw, name)
	if apiErr != nil {
		return nil, apiErr
	}
	return &id, nil
}

func parseID(raw, name string) (int64, *model.APIError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewInvalidRequestError(name + " must be a positive integer")
	}
	return id, nil
}
