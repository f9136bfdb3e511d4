package view

import (
	"github.com/hitoshi/taskmaintain/internal/directory"
	"github.com/hitoshi/taskmaintain/internal/model"
	"github.com/hitoshi/taskmaintain/internal/task"
)

// PageData は "/" のレンダリングに使うデータ。
// View がViewLoginの場合はLoginのみ、ViewMainの場合はLogin以外を参照する。
type PageData struct {
	View      View
	Screen    Screen
	CSRFToken string

	Login     LoginPanel
	Dashboard DashboardPanel
	Calendar  CalendarPanel
	Tasks     TaskPanel
	Users     UserPanel
}

// LoginPanel はログイン・登録フォームの状態。
type LoginPanel struct {
	Email   string
	Message string
	IsError bool
}

// DashboardPanel はタスク件数の表示。
type DashboardPanel struct {
	Stats model.TaskStats
	Error string
}

// CalendarPanel はカレンダーストリップの表示。
type CalendarPanel struct {
	Cells []model.CalendarCell
}

// TaskPanel はタスク一覧と作成フォームの状態。
type TaskPanel struct {
	Cards []task.Card
	// LoadError が空でない場合、一覧の代わりにこの文言を表示する
	LoadError string
	Form      TaskForm
	FormError string
}

// TaskForm はタスク作成フォームの入力値。失敗時の再表示に使う。
type TaskForm struct {
	Title       string
	Description string
	StartTime   string
	EndTime     string
	Notes       string
}

// UserPanel はユーザーディレクトリの状態。
type UserPanel struct {
	Cards     []directory.Card
	LoadError string
	Query     string
	FormOpen  bool
	Form      UserForm
	FormError string
	Notice    string
}

// UserForm はユーザー追加フォームの入力値。
type UserForm struct {
	FirstName string
	LastName  string
	Email     string
	Company   string
}

// NotesData は備考編集画面のデータ。
type NotesData struct {
	CSRFToken string
	Task      task.Card
	Error     string
}

// IsLogin はログイン画面を表示するかどうかを返す。
func (p PageData) IsLogin() bool {
	return p.View != ViewMain
}

// Hidden は指定スクリーンを非表示にするかどうかを返す。
func (p PageData) Hidden(screen string) bool {
	return Show(screen) != p.Screen
}

// Screens はナビゲーションに並べるスクリーンを返す。
func (p PageData) Screens() []Screen {
	return Screens
}
