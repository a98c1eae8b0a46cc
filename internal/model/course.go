package model

import "time"

// Course は科目を表す。
type Course struct {
	ID          int64
	Title       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Section は科目のクラスを表す。
// 担当教員（TeacherID）だけがこのクラスの成績を変更できる。
// Capacityは参考値であり、登録時に上限チェックは行わない。
type Section struct {
	ID        int64
	Name      string
	Capacity  *int
	CourseID  int64
	TeacherID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
