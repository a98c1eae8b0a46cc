package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gradebook/internal/model"
)

const enrollmentColumns = `id, student_id, section_id, grade, created_at, updated_at`

// PostgresEnrollmentRepo はPostgreSQLを使用した履修リポジトリ。
// (student_id, section_id) の一意性はテーブルの一意制約で保証する。
type PostgresEnrollmentRepo struct {
	db *sql.DB
}

// NewPostgresEnrollmentRepo はPostgresEnrollmentRepoを生成する。
func NewPostgresEnrollmentRepo(db *sql.DB) *PostgresEnrollmentRepo {
	return &PostgresEnrollmentRepo{db: db}
}

func scanEnrollment(row rowScanner) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	var grade sql.NullString
	if err := row.Scan(&e.ID, &e.StudentID, &e.SectionID, &grade, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if grade.Valid {
		e.Grade = &grade.String
	}
	return e, nil
}

// FindByID は指定IDの履修を取得する。見つからない場合はnilを返す。
func (r *PostgresEnrollmentRepo) FindByID(ctx context.Context, id int64) (*model.Enrollment, error) {
	e, err := scanEnrollment(r.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find enrollment by ID: %w", err)
	}
	return e, nil
}

// FindByStudentAndSection は生徒とクラスの組で履修を検索する。見つからない場合はnilを返す。
func (r *PostgresEnrollmentRepo) FindByStudentAndSection(ctx context.Context, studentID, sectionID int64) (*model.Enrollment, error) {
	e, err := scanEnrollment(r.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id = $1 AND section_id = $2`,
		studentID, sectionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find enrollment by student and section: %w", err)
	}
	return e, nil
}

// Create は履修を作成する。一意制約違反の場合はErrDuplicateを返す。
func (r *PostgresEnrollmentRepo) Create(ctx context.Context, e *model.Enrollment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO enrollments (student_id, section_id, grade) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		e.StudentID, e.SectionID, e.Grade,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの履修を削除する。
func (r *PostgresEnrollmentRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return expectOneRow(result, "enrollment", id)
}

// ListByStudentID は生徒の履修一覧をID順に返す。
func (r *PostgresEnrollmentRepo) ListByStudentID(ctx context.Context, studentID int64) ([]*model.Enrollment, error) {
	return r.query(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id = $1 ORDER BY id`, studentID)
}

// ListBySectionID はクラスの履修一覧をID順に返す。
func (r *PostgresEnrollmentRepo) ListBySectionID(ctx context.Context, sectionID int64) ([]*model.Enrollment, error) {
	return r.query(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE section_id = $1 ORDER BY id`, sectionID)
}

func (r *PostgresEnrollmentRepo) query(ctx context.Context, q string, args ...any) ([]*model.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateGrade は成績を上書きする。gradeがnilの場合はNULLにする。
func (r *PostgresEnrollmentRepo) UpdateGrade(ctx context.Context, id int64, grade *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET grade = $1, updated_at = now() WHERE id = $2`,
		grade, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update grade: %w", err)
	}
	return expectOneRow(result, "enrollment", id)
}

// compile-time interface check
var _ EnrollmentRepository = (*PostgresEnrollmentRepo)(nil)
