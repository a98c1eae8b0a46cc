package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, enrollment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeStudentNotFound     = "STUDENT_NOT_FOUND"
	ErrCodeTeacherNotFound     = "TEACHER_NOT_FOUND"
	ErrCodeCourseNotFound      = "COURSE_NOT_FOUND"
	ErrCodeSectionNotFound     = "SECTION_NOT_FOUND"
	ErrCodeEnrollmentNotFound  = "ENROLLMENT_NOT_FOUND"
	ErrCodeDuplicateEnrollment = "DUPLICATE_ENROLLMENT"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidGrade        = "INVALID_GRADE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// EntityKind は存在チェックの対象となるエンティティ種別。
type EntityKind string

const (
	EntityStudent    EntityKind = "Student"
	EntityTeacher    EntityKind = "Teacher"
	EntityCourse     EntityKind = "Course"
	EntitySection    EntityKind = "Section"
	EntityEnrollment EntityKind = "Enrollment"
)

var notFoundCodes = map[EntityKind]string{
	EntityStudent:    ErrCodeStudentNotFound,
	EntityTeacher:    ErrCodeTeacherNotFound,
	EntityCourse:     ErrCodeCourseNotFound,
	EntitySection:    ErrCodeSectionNotFound,
	EntityEnrollment: ErrCodeEnrollmentNotFound,
}

// NewUnauthorizedError は認証失敗エラーを生成する。
// 失敗の内訳（期限切れ、署名不正、パスワード不一致など）は含めない。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証情報が無効です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewForbiddenError は認可拒否エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作を行う権限がありません: %s", reason),
		Category: "auth",
		Action:   "担当しているクラスに対してのみ操作できます。",
	}
}

// NewNotFoundError は参照先エンティティが存在しない場合のエラーを生成する。
func NewNotFoundError(kind EntityKind, id int64) *APIError {
	code, ok := notFoundCodes[kind]
	if !ok {
		code = "NOT_FOUND"
	}
	return &APIError{
		Code:     code,
		Message:  fmt.Sprintf("%s not found: %d", kind, id),
		Category: "validation",
		Action:   "IDを確認してください。",
	}
}

// NewDuplicateEnrollmentError は同一の生徒とクラスの組で二重登録しようとした場合のエラーを生成する。
func NewDuplicateEnrollmentError(studentID, sectionID int64) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEnrollment,
		Message:  fmt.Sprintf("生徒 %d はクラス %d に既に登録されています。", studentID, sectionID),
		Category: "enrollment",
		Action:   "登録一覧から該当クラスを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト内容が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewInvalidGradeError は成績の値が不正な場合のエラーを生成する。
func NewInvalidGradeError(maxLen int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidGrade,
		Message:  fmt.Sprintf("成績は%d文字以内で指定してください。", maxLen),
		Category: "validation",
		Action:   "成績を短くするか、nullを指定して削除してください。",
	}
}

// IsNotFound はerrが指定種別の未検出エラーかどうかを返す。
func IsNotFound(err error, kind EntityKind) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == notFoundCodes[kind]
}

// HasCode はerrが指定コードのAPIErrorかどうかを返す。
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
