// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はフォームから受け取った自由入力テキスト（タスクの説明・備考、
// プロフィールの氏名・会社名など）を保存用に正規化する。
// 保存する値は入力どおりのプレーンテキストで、HTMLとしての無害化は
// 表示時のhtml/templateのエスケープに任せる。
package security

import (
	"html"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト正規化のインターフェースを定義する。
type TextSanitizer interface {
	// Clean は前後の空白とNUL文字を取り除いた文字列を返す。
	// <や&を含む文字列もそのまま残す。Clean(Clean(s)) == Clean(s)。
	Clean(raw string) string
	// ContainsMarkup はHTMLとして解釈するとタグや実体参照として扱われる部分を含むかを返す。
	ContainsMarkup(raw string) bool
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean は入力を保存用に正規化する。PostgreSQLのtext型はNULを受け付けない。
func (s *textSanitizer) Clean(raw string) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\x00", ""))
	if text == "" {
		return ""
	}
	if s.ContainsMarkup(text) {
		slog.Debug("HTMLとして解釈される文字列を含む入力をプレーンテキストとして保存します",
			slog.Int("length", len(text)),
		)
	}
	return text
}

// ContainsMarkup はStrictPolicyで無害化した結果を復号し、元の文字列と一致しない場合にtrueを返す。
func (s *textSanitizer) ContainsMarkup(raw string) bool {
	return html.UnescapeString(s.policy.Sanitize(raw)) != raw
}
