package httpx

import (
	"net/url"
	"strings"

	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
)

// safeRedirectPath returns candidate as a local path when it points at host,
// or fallback for anything that would leave the site.
func safeRedirectPath(candidate, host, fallback string) string {
	u, err := url.Parse(candidate)
	if err != nil {
		return fallback
	}
	if u.IsAbs() || u.Host != "" {
		if !strings.EqualFold(u.Host, host) {
			return fallback
		}
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	local := url.URL{Path: u.Path, RawQuery: u.RawQuery}
	return local.String()
}

func statusOf(err error) int { return apperrors.StatusOf(err) }

func messageOf(err error) string { return apperrors.MessageOf(err) }

// checked reports whether an HTML checkbox was submitted as on.
func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
