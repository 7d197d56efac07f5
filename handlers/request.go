package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/ratelimit"
)

// decodeBody decodes a JSON body into dst and answers 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// tooManyRequests answers 429 with Retry-After set. prefix is completed
// with a human readable wait, e.g. "please wait 1 minute(s)".
func tooManyRequests(w http.ResponseWriter, retryAfter int, prefix string) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	pkg.ErrorWithMessage(w, http.StatusTooManyRequests, prefix+" "+ratelimit.FormatRetryMessage(retryAfter))
}
