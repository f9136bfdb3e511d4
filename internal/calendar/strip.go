// Package calendar は今日を中心とした35日分のカレンダーストリップを生成する。
package calendar

import (
	"time"

	"github.com/hitoshi/taskmaintain/internal/model"
)

const (
	// Days はストリップのセル数。
	Days = 35
	// DaysBefore は先頭セルが今日から何日前か。
	DaysBefore = 14
)

// Build はtodayを含む35日分のセルを返す。
// 先頭はtodayの14日前で、以降1日ずつ進む。日付はtodayのタイムゾーンの暦日で扱う。
func Build(today time.Time) []model.CalendarCell {
	y, m, d := today.Date()
	loc := today.Location()
	cells := make([]model.CalendarCell, Days)
	for i := range cells {
		date := time.Date(y, m, d-DaysBefore+i, 0, 0, 0, 0, loc)
		cells[i] = model.CalendarCell{
			Date:      date,
			DayNumber: date.Day(),
			ISODate:   date.Format(time.DateOnly),
			IsToday:   i == DaysBefore,
		}
	}
	return cells
}

// PlaceholderMessage はセルをクリックしたときに表示する文言を返す。
func PlaceholderMessage(isoDate string) string {
	return "Tareas programadas para " + isoDate
}
