package model

import "time"

// CalendarCell はカレンダーストリップの1日分のセル。
// 画面表示のたびに再生成され、永続化されない。
type CalendarCell struct {
	Date      time.Time `json:"-"`
	DayNumber int       `json:"day"`
	ISODate   string    `json:"date"`
	IsToday   bool      `json:"is_today"`
	// HasTask はタスクとの紐付け用のフックで、現状は常にfalse。
	HasTask bool `json:"has_task"`
}
