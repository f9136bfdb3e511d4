// Package model はドメインモデルを定義する。
package model

import "time"

// Account はメールアドレスとパスワードでログインするアカウントを表す。
// 認証サービスのみが生成・参照する。
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Valid はnow時点でセッションが有効期限内かどうかを返す。
func (s *Session) Valid(now time.Time) bool {
	if s == nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
