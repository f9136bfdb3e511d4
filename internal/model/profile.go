package model

import "time"

// Profile はディレクトリに登録されたユーザー（perfilesテーブルの1行）を表す。
// 作成後に更新・削除はされない。
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Company   string
	CreatedAt time.Time
}

// FullName は「名 姓」形式の表示名を返す。
func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// DisplayCompany は会社名を返す。未設定の場合は名を代わりに返す。
func (p *Profile) DisplayCompany() string {
	if p.Company != "" {
		return p.Company
	}
	return p.FirstName
}
