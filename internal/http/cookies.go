package httpx

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
)

// CookieConfig holds attributes shared by every cookie the site sets.
type CookieConfig struct {
	Domain string
	Secure bool // always set the Secure attribute, even behind plain HTTP
}

func (c CookieConfig) secure(r *http.Request) bool {
	return c.Secure || isSecureRequest(r)
}

// setSession writes the session cookie, expiring with the session.
func (c CookieConfig) setSession(w http.ResponseWriter, r *http.Request, sess *domainauth.Session) {
	maxAge := 0
	if !sess.ExpiresAt.IsZero() {
		maxAge = max(1, int(time.Until(sess.ExpiresAt).Seconds()))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// setTemp writes a short-lived HttpOnly cookie used during the OAuth round trip.
func (c CookieConfig) setTemp(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthCookieTTL.Seconds()),
	})
}

// clear expires a cookie, mirroring the attributes used to set it.
func (c CookieConfig) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// visitorID returns the anonymous visitor id used for likes, issuing one when missing.
func (c CookieConfig) visitorID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(visitorCookieName); err == nil {
		if _, perr := uuid.Parse(ck.Value); perr == nil {
			return ck.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    id,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(visitorCookieTTL.Seconds()),
	})
	return id
}

// existingVisitorID returns the visitor id without issuing a new one.
func existingVisitorID(r *http.Request) string {
	ck, err := r.Cookie(visitorCookieName)
	if err != nil {
		return ""
	}
	if _, perr := uuid.Parse(ck.Value); perr != nil {
		return ""
	}
	return ck.Value
}

// cookieValue returns the named cookie's value or "".
func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
