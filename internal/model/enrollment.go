package model

import "time"

// Enrollment は生徒とクラスの履修関係を表す。
// (StudentID, SectionID) の組はテーブル全体で一意。
type Enrollment struct {
	ID        int64
	StudentID int64
	SectionID int64
	Grade     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
