package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hitoshi/taskmaintain/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	// .envが存在する場合のみ読み込む。既存の環境変数は上書きしない
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.String("error", err.Error()))
	}

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
