package view

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// StaticFS は/static配下で配信するアセット（CSS、JS、マニフェスト、Service Worker）を返す。
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
