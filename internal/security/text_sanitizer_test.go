package security

import (
	"testing"
)

func TestClean_KeepsTextAsTyped(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Revisar informe", "Revisar informe"},
		{"比較記号は切り詰めない", "revisar si x<y antes del viernes", "revisar si x<y antes del viernes"},
		{"実体参照の文字列は復号しない", "usar &lt;b&gt; en el título", "usar &lt;b&gt; en el título"},
		{"タグらしき文字列も残す", "<b>urgente</b> mañana", "<b>urgente</b> mañana"},
		{"記号と引用符を残す", "Pérez & Hijos S.A. 'Norte'", "Pérez & Hijos S.A. 'Norte'"},
		{"前後の空白を除去する", "  nota  ", "nota"},
		{"NUL文字を除去する", "no\x00ta", "nota"},
		{"空文字列は空文字列", "", ""},
		{"空白のみは空文字列", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	inputs := []string{
		"revisar si x<y antes del viernes",
		"usar &lt;b&gt; en el título",
		"<p>Llamar a <em>cliente</em></p>",
		"  a & b  ",
	}
	for _, input := range inputs {
		first := sanitizer.Clean(input)
		second := sanitizer.Clean(first)
		if first != second {
			t.Errorf("Clean should be idempotent for %q: %q != %q", input, first, second)
		}
	}
}

func TestContainsMarkup(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		input string
		want  bool
	}{
		{"Revisar informe", false},
		{"Pérez y Hijos", false},
		{"mañana a las 10:00", false},
		{"<b>urgente</b>", true},
		{`hola<script>alert("x")</script>`, true},
		{"usar &lt;b&gt;", true},
	}

	for _, tt := range tests {
		if got := sanitizer.ContainsMarkup(tt.input); got != tt.want {
			t.Errorf("ContainsMarkup(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
