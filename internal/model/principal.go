// Package model はドメインモデルを定義する。
package model

import (
	"net/mail"
	"time"
)

// Role はトークンに埋め込まれるプリンシパルのロールを表す。
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid はロールが既知の値かどうかを返す。
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Student は生徒を表す。
// PasswordHashがnilの生徒はログインできない。
type Student struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName は表示用の氏名を返す。
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Subject は教員の担当教科を表す。
type Subject string

const (
	SubjectMath           Subject = "Math"
	SubjectEnglish        Subject = "English"
	SubjectSocialSciences Subject = "Social Sciences"
	SubjectPE             Subject = "PE"
)

// Valid は教科が定義済みの値かどうかを返す。
func (s Subject) Valid() bool {
	switch s {
	case SubjectMath, SubjectEnglish, SubjectSocialSciences, SubjectPE:
		return true
	default:
		return false
	}
}

// Teacher は教員を表す。
// PasswordHashがnilの教員はログインできない。
type Teacher struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Subject      Subject
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName は表示用の氏名を返す。
func (t *Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}

// ValidEmail は表示名を含まない単一のメールアドレスかどうかを返す。
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
