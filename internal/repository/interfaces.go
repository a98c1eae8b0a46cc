// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/gradebook/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// 呼び出し側はドメインの競合エラーに変換する。
var ErrDuplicate = errors.New("repository: duplicate key")

// ErrNotFound は更新・削除の対象行が存在しなかったことを表す。
// 取得系は従来どおり (nil, nil) を返す。
var ErrNotFound = errors.New("repository: row not found")

// StudentRepository は生徒データの永続化インターフェース。
type StudentRepository interface {
	// FindByID は指定IDの生徒を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Student, error)
	// FindByIDs は指定IDの生徒をまとめて取得する。存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []int64) ([]*model.Student, error)
	List(ctx context.Context) ([]*model.Student, error)
	// Create は生徒を作成し、採番されたIDとタイムスタンプを設定する。
	Create(ctx context.Context, student *model.Student) error
	// Update は氏名とメールアドレスを更新する。
	Update(ctx context.Context, student *model.Student) error
	// UpdatePasswordHash はパスワードハッシュを置き換える。
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	// DeleteByID は指定IDの生徒を削除する。関連するenrollmentsはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// TeacherRepository は教員データの永続化インターフェース。
type TeacherRepository interface {
	// FindByID は指定IDの教員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Teacher, error)
	// FindByIDs は指定IDの教員をまとめて取得する。存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []int64) ([]*model.Teacher, error)
	List(ctx context.Context) ([]*model.Teacher, error)
	Create(ctx context.Context, teacher *model.Teacher) error
}

// CourseRepository は科目データの永続化インターフェース。
type CourseRepository interface {
	// FindByID は指定IDの科目を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Course, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*model.Course, error)
	List(ctx context.Context) ([]*model.Course, error)
	Create(ctx context.Context, course *model.Course) error
}

// SectionFilter はクラス一覧の絞り込み条件。nilの項目は条件に含めない。
type SectionFilter struct {
	CourseID  *int64
	TeacherID *int64
}

// SectionRepository はクラスデータの永続化インターフェース。
type SectionRepository interface {
	// FindByID は指定IDのクラスを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Section, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*model.Section, error)
	List(ctx context.Context, filter SectionFilter) ([]*model.Section, error)
	Create(ctx context.Context, section *model.Section) error
	Update(ctx context.Context, section *model.Section) error
	// DeleteByID は指定IDのクラスを削除する。関連するenrollmentsはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// EnrollmentRepository は履修データの永続化インターフェース。
type EnrollmentRepository interface {
	// FindByID は指定IDの履修を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Enrollment, error)
	// FindByStudentAndSection は生徒とクラスの組で履修を検索する。見つからない場合はnilを返す。
	FindByStudentAndSection(ctx context.Context, studentID, sectionID int64) (*model.Enrollment, error)
	// Create は履修を作成する。(student_id, section_id) が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, enrollment *model.Enrollment) error
	DeleteByID(ctx context.Context, id int64) error
	ListByStudentID(ctx context.Context, studentID int64) ([]*model.Enrollment, error)
	ListBySectionID(ctx context.Context, sectionID int64) ([]*model.Enrollment, error)
	// UpdateGrade は成績を上書きする。gradeがnilの場合は成績を削除する。
	UpdateGrade(ctx context.Context, id int64, grade *string) error
}
