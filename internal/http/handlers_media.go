package httpx

import (
	"io"
	"net/http"
	"path"
	"strconv"
)

const mediaCacheControl = "public, max-age=604800"

// Media serves GET /media/{key...} from the image store. Keys are random, so
// responses are cacheable for a week.
func (h *UIHandlers) Media(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	body, info, err := h.Images.Open(r.Context(), key)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		h.logger().ErrorContext(r.Context(), "open media failed", "key", key, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer func() { _ = body.Close() }()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Cache-Control", mediaCacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if rs, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), info.ModTime, rs)
		return
	}
	if !info.ModTime.IsZero() {
		w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger().DebugContext(r.Context(), "media copy interrupted", "key", key, "error", err)
	}
}
