// Package errors holds the dashboard's request-scoped error logging.
// Backend failures are logged with their request ID and the browser only
// ever sees a generic message; the detail stays in the server log.
package errors

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// InternalError logs err against the request and answers with an opaque
// 500. Used when a page genuinely cannot render.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logf(r, "%s: %v", message, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// LogError records a failure on a request that still produces a
// response, such as a list load degrading to its empty state.
func LogError(r *http.Request, message string, err error) {
	logf(r, "%s: %v", message, err)
}

// logf carries the chi request ID so a failure line can be matched to
// its entry in the access log.
func logf(r *http.Request, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if id := middleware.GetReqID(r.Context()); id != "" {
		log.Printf("[ERROR] RequestID=%s: %s", id, msg)
		return
	}
	log.Printf("[ERROR] %s", msg)
}
