package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	h "teamcalendar/internal/delivery/http/helpers"
)

// Recover turns a handler panic into a 500 and calls onPanic, which may be nil.
func Recover(logger *slog.Logger, onPanic func(), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			if onPanic != nil {
				onPanic()
			}
			logger.ErrorContext(r.Context(), "recovered from panic",
				"path", r.URL.Path,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
