package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskmaintain/internal/middleware"
	"github.com/hitoshi/taskmaintain/internal/model"
)

// internalErrorMessage はAPIError以外のエラーの代わりに画面へ表示する文言。
const internalErrorMessage = "Error interno del servidor. Inténtalo de nuevo más tarde."

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, middleware.StatusFor(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// userMessage は画面に表示するエラーメッセージとHTTPステータスを返す。
// APIErrorのメッセージはそのまま表示し、それ以外はログに記録して一般的な文言に置き換える。
func userMessage(err error) (string, int) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message, middleware.StatusFor(apiErr)
	}
	slog.Error("internal server error", slog.String("error", err.Error()))
	return internalErrorMessage, http.StatusInternalServerError
}
