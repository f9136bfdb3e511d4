package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"

	"github.com/hitoshi/taskmaintain/internal/calendar"
)

//go:embed templates/*.html
var templateFS embed.FS

// NoUsersPlaceholder はディレクトリが空のときに表示するプレースホルダーのテンプレート名。
const NoUsersPlaceholder = "no-users-message"

// Renderer は埋め込みテンプレートからHTMLを生成する。
type Renderer struct {
	templates *template.Template
}

// NewRenderer は埋め込みテンプレートを読み込んだRendererを返す。
func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFS, "templates/*.html")
}

func newRenderer(fsys fs.FS, patterns ...string) (*Renderer, error) {
	r := &Renderer{}
	funcs := template.FuncMap{
		"calendarMessage": calendar.PlaceholderMessage,
		"placeholder":     r.placeholder,
	}

	t, err := template.New("").Funcs(funcs).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, name := range []string{"page", "notes"} {
		if t.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q not defined", name)
		}
	}
	r.templates = t
	return r, nil
}

// RenderPage はログイン画面またはメイン画面を書き込む。
// 途中で失敗した場合は書きかけの内容が残るため、呼び出し側でバッファに受けること。
func (r *Renderer) RenderPage(w io.Writer, data PageData) error {
	return r.execute(w, "page", data)
}

// RenderNotes は備考編集画面を書き込む。
func (r *Renderer) RenderNotes(w io.Writer, data NotesData) error {
	return r.execute(w, "notes", data)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// placeholder は名前付きテンプレートをvisibleを引数にして展開する。
// テンプレートが定義されていない場合は警告をログに出し、何も出力しない。
func (r *Renderer) placeholder(name string, visible bool) (template.HTML, error) {
	t := r.templates.Lookup(name)
	if t == nil {
		slog.Warn("placeholder template not found", slog.String("template", name))
		return "", nil
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, visible); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
