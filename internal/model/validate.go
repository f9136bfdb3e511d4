package model

import (
	"regexp"
	"unicode/utf16"
)

// MinPasswordLength は登録時に要求するパスワードの最小文字数。
// 文字数はUTF-16のコード単位で数える。
const MinPasswordLength = 6

// 区切りの空白にはASCII以外のUnicode空白（\p{Z}）と\v、BOMも含める。
const notSpaceOrAt = `[^\s\x{000B}\p{Z}\x{FEFF}@]+`

var emailPattern = regexp.MustCompile(`^` + notSpaceOrAt + `@` + notSpaceOrAt + `\.` + notSpaceOrAt + `$`)

// IsValidEmail はメールアドレスが簡易的な書式（x@y.z）に一致するかを判定する。
// 登録フォームとユーザー追加フォームで共通に使う。
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// PasswordLength はパスワードの長さをUTF-16のコード単位で返す。
// BMP外の文字は2と数える。
func PasswordLength(password string) int {
	return len(utf16.Encode([]rune(password)))
}

// IsPasswordLongEnough はパスワードがMinPasswordLength文字以上かを判定する。
func IsPasswordLongEnough(password string) bool {
	return PasswordLength(password) >= MinPasswordLength
}
