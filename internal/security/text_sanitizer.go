// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は成績、氏名、科目名などの自由入力テキストからマークアップを除去する。
// 保存する値はプレーンテキストであり、HTMLとして解釈されることはない。
package security

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由入力テキストを正規化する。
// bluemondayのStrictPolicyで全タグを除去し、script/style要素は内容ごと捨てる。
// ポリシーはスレッドセーフに共有できる。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean はタグと制御文字を除去し、前後の空白を取り除いたプレーンテキストを返す。
// StrictPolicyがエスケープした文字参照（&amp; など）は元の文字に戻す。
func (s *TextSanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.UnescapeString(s.policy.Sanitize(raw))
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}

// CleanPtr はnilを保ったままCleanを適用する。
// 除去後に空文字列になった場合はnilを返す。
func (s *TextSanitizer) CleanPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	cleaned := s.Clean(*raw)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
