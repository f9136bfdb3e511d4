// Package view はログイン画面とメイン画面（4つのスクリーン）のHTMLレンダリングを提供する。
package view

import "github.com/hitoshi/taskmaintain/internal/model"

// View はページ全体の表示モード。1回のレンダリングでどちらか一方だけを出力する。
type View string

const (
	ViewLogin View = "login"
	ViewMain  View = "main"
)

// Gate はセッションの有無から表示するビューを決める。
func Gate(session *model.Session) View {
	if session == nil {
		return ViewLogin
	}
	return ViewMain
}

// Screen はメイン画面内のスクリーン。
type Screen string

const (
	ScreenDashboard Screen = "dashboard"
	ScreenCalendar  Screen = "calendar"
	ScreenTasks     Screen = "tasks"
	ScreenUsers     Screen = "users"
)

// Screens はナビゲーションの表示順。
var Screens = []Screen{ScreenDashboard, ScreenCalendar, ScreenTasks, ScreenUsers}

// Show は表示するスクリーンを返す。未知の値はdashboardになる。
func Show(target string) Screen {
	for _, s := range Screens {
		if string(s) == target {
			return s
		}
	}
	return ScreenDashboard
}

// Label はナビゲーションに表示する名前。
func (s Screen) Label() string {
	switch s {
	case ScreenCalendar:
		return "Calendario"
	case ScreenTasks:
		return "Tareas"
	case ScreenUsers:
		return "Usuarios"
	default:
		return "Dashboard"
	}
}
