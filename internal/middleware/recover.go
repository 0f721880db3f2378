package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"therapypal-gateway/internal/logging"
)

// Recover turns a handler panic into the generic 500 envelope. The stack is
// logged and never sent to the client.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logging.FromContext(r.Context(), logger).Error("500 error",
					"panic", fmt.Sprint(rvr),
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "Internal server error", r)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
