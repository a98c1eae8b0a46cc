package handler

import (
	"time"

	"github.com/hitoshi/gradebook/internal/auth"
	"github.com/hitoshi/gradebook/internal/model"
)

// studentResponse は生徒情報のAPIレスポンス。パスワードハッシュは含めない。
type studentResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// teacherResponse は教員情報のAPIレスポンス。
type teacherResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
}

// courseResponse は科目情報のAPIレスポンス。
type courseResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// sectionResponse はクラス情報のAPIレスポンス。
type sectionResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Capacity  *int   `json:"capacity"`
	CourseID  int64  `json:"course_id"`
	TeacherID int64  `json:"teacher_id"`
}

// enrollmentResponse は履修情報のAPIレスポンス。
type enrollmentResponse struct {
	ID        int64   `json:"id"`
	StudentID int64   `json:"student_id"`
	SectionID int64   `json:"section_id"`
	Grade     *string `json:"grade"`
}

// rosterEntryResponse はクラス名簿1行のAPIレスポンス。
type rosterEntryResponse struct {
	StudentID    int64   `json:"student_id"`
	EnrollmentID int64   `json:"enrollment_id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	Grade        *string `json:"grade"`
}

// classWithGradeResponse は生徒から見た履修クラスのAPIレスポンス。
type classWithGradeResponse struct {
	CourseTitle  string  `json:"course_title"`
	SectionName  string  `json:"section_name"`
	SectionID    int64   `json:"section_id"`
	TeacherName  string  `json:"teacher_name"`
	TeacherEmail string  `json:"teacher_email"`
	Grade        *string `json:"grade"`
}

// tokenResponse はログイン成功時のAPIレスポンス。
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// resetPasswordResponse はパスワード再発行のAPIレスポンス。
type resetPasswordResponse struct {
	StudentID   int64  `json:"student_id"`
	NewPassword string `json:"new_password"`
}

func toStudentResponse(s *model.Student) studentResponse {
	return studentResponse{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
	}
}

func toStudentResponses(students []*model.Student) []studentResponse {
	out := make([]studentResponse, len(students))
	for i, s := range students {
		out[i] = toStudentResponse(s)
	}
	return out
}

func toTeacherResponse(t *model.Teacher) teacherResponse {
	return teacherResponse{
		ID:        t.ID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     t.Email,
		Subject:   string(t.Subject),
	}
}

func toTeacherResponses(teachers []*model.Teacher) []teacherResponse {
	out := make([]teacherResponse, len(teachers))
	for i, t := range teachers {
		out[i] = toTeacherResponse(t)
	}
	return out
}

func toCourseResponse(c *model.Course) courseResponse {
	return courseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
	}
}

func toCourseResponses(courses []*model.Course) []courseResponse {
	out := make([]courseResponse, len(courses))
	for i, c := range courses {
		out[i] = toCourseResponse(c)
	}
	return out
}

func toSectionResponse(s *model.Section) sectionResponse {
	return sectionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Capacity:  s.Capacity,
		CourseID:  s.CourseID,
		TeacherID: s.TeacherID,
	}
}

func toSectionResponses(sections []*model.Section) []sectionResponse {
	out := make([]sectionResponse, len(sections))
	for i, s := range sections {
		out[i] = toSectionResponse(s)
	}
	return out
}

func toEnrollmentResponse(e *model.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:        e.ID,
		StudentID: e.StudentID,
		SectionID: e.SectionID,
		Grade:     e.Grade,
	}
}

func toTokenResponse(t *auth.AccessToken) tokenResponse {
	return tokenResponse{
		AccessToken: t.Token,
		TokenType:   t.TokenType,
		ExpiresAt:   t.ExpiresAt.UTC(),
	}
}
