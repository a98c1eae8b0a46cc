package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hitoshi/gradebook/internal/model"
	"github.com/lib/pq"
)

// PostgresCourseRepo はPostgreSQLを使用した科目リポジトリ。
type PostgresCourseRepo struct {
	db *sql.DB
}

// NewPostgresCourseRepo はPostgresCourseRepoを生成する。
func NewPostgresCourseRepo(db *sql.DB) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: db}
}

func scanCourse(row rowScanner) (*model.Course, error) {
	c := &model.Course{}
	var desc sql.NullString
	if err := row.Scan(&c.ID, &c.Title, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		c.Description = &desc.String
	}
	return c, nil
}

// FindByID は指定IDの科目を取得する。見つからない場合はnilを返す。
func (r *PostgresCourseRepo) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_at, updated_at FROM courses WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find course by ID: %w", err)
	}
	return c, nil
}

// FindByIDs は指定IDの科目をまとめて取得する。
func (r *PostgresCourseRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx,
		`SELECT id, title, description, created_at, updated_at FROM courses WHERE id = ANY($1) ORDER BY id`,
		pq.Array(ids))
}

// List は全科目をID順に返す。
func (r *PostgresCourseRepo) List(ctx context.Context) ([]*model.Course, error) {
	return r.query(ctx, `SELECT id, title, description, created_at, updated_at FROM courses ORDER BY id`)
}

func (r *PostgresCourseRepo) query(ctx context.Context, q string, args ...any) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return courses, nil
}

// Create は科目を作成する。
func (r *PostgresCourseRepo) Create(ctx context.Context, c *model.Course) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO courses (title, description) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		c.Title, c.Description,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}

// PostgresSectionRepo はPostgreSQLを使用したクラスリポジトリ。
type PostgresSectionRepo struct {
	db *sql.DB
}

// NewPostgresSectionRepo はPostgresSectionRepoを生成する。
func NewPostgresSectionRepo(db *sql.DB) *PostgresSectionRepo {
	return &PostgresSectionRepo{db: db}
}

const sectionColumns = `id, name, capacity, course_id, teacher_id, created_at, updated_at`

func scanSection(row rowScanner) (*model.Section, error) {
	s := &model.Section{}
	var capacity sql.NullInt64
	if err := row.Scan(&s.ID, &s.Name, &capacity, &s.CourseID, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		s.Capacity = &c
	}
	return s, nil
}

// FindByID は指定IDのクラスを取得する。見つからない場合はnilを返す。
func (r *PostgresSectionRepo) FindByID(ctx context.Context, id int64) (*model.Section, error) {
	s, err := scanSection(r.db.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find section by ID: %w", err)
	}
	return s, nil
}

// FindByIDs は指定IDのクラスをまとめて取得する。
func (r *PostgresSectionRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Section, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

// List は条件に一致するクラスをID順に返す。
func (r *PostgresSectionRepo) List(ctx context.Context, filter SectionFilter) ([]*model.Section, error) {
	var (
		conds []string
		args  []any
	)
	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		conds = append(conds, "course_id = $"+strconv.Itoa(len(args)))
	}
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		conds = append(conds, "teacher_id = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + sectionColumns + ` FROM sections`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY id`
	return r.query(ctx, q, args...)
}

func (r *PostgresSectionRepo) query(ctx context.Context, q string, args ...any) ([]*model.Section, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []*model.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sections: %w", err)
	}
	return sections, nil
}

// Create はクラスを作成する。
func (r *PostgresSectionRepo) Create(ctx context.Context, s *model.Section) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sections (name, capacity, course_id, teacher_id) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.Capacity, s.CourseID, s.TeacherID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert section: %w", err)
	}
	return nil
}

// Update はクラスの全項目を更新する。
func (r *PostgresSectionRepo) Update(ctx context.Context, s *model.Section) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE sections SET name = $1, capacity = $2, course_id = $3, teacher_id = $4, updated_at = now()
		 WHERE id = $5
		 RETURNING updated_at`,
		s.Name, s.Capacity, s.CourseID, s.TeacherID, s.ID,
	).Scan(&s.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("section %d: %w", s.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update section: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのクラスを削除する。
func (r *PostgresSectionRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}
	return expectOneRow(result, "section", id)
}

// compile-time interface check
var (
	_ CourseRepository  = (*PostgresCourseRepo)(nil)
	_ SectionRepository = (*PostgresSectionRepo)(nil)
)
