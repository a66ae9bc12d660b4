package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// likeToggledEvent is fired on the client after a like toggle so other
// counters for the same listing can refresh.
const likeToggledEvent = "like-toggled"

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXTrigger asks htmx to dispatch event with detail once the swap settles.
// A detail that cannot be encoded sends the bare event name.
func SetHXTrigger(w http.ResponseWriter, event string, detail any) {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		w.Header().Set("Hx-Trigger", event)
		return
	}
	w.Header().Set("Hx-Trigger", string(payload))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
