package auth

import (
	"fmt"

	"github.com/hitoshi/gradebook/internal/model"
)

// CanGrade は教員がクラスの成績を変更できるかを返す。
// クラスの担当教員本人である場合のみ許可する。
func CanGrade(teacher *model.Teacher, section *model.Section) bool {
	if teacher == nil || section == nil {
		return false
	}
	return teacher.ID == section.TeacherID
}

// AuthorizeGradeChange はCanGradeが偽の場合に403系のAPIErrorを返す。
// 認証済みの教員が対象外のクラスを操作した場合であり、認証失敗とは区別する。
func AuthorizeGradeChange(teacher *model.Teacher, section *model.Section) error {
	if CanGrade(teacher, section) {
		return nil
	}
	sectionID := int64(0)
	if section != nil {
		sectionID = section.ID
	}
	return model.NewForbiddenError(fmt.Sprintf("section %d is not taught by the caller", sectionID))
}

// AuthorizeSectionChange はクラスの更新・削除が担当教員本人によるものかを確認する。
// 担当教員の付け替えは成績変更権限の移譲になるため、現担当者のみが行える。
func AuthorizeSectionChange(teacher *model.Teacher, section *model.Section) error {
	if CanGrade(teacher, section) {
		return nil
	}
	sectionID := int64(0)
	if section != nil {
		sectionID = section.ID
	}
	return model.NewForbiddenError(fmt.Sprintf("section %d can only be changed by its teacher", sectionID))
}
