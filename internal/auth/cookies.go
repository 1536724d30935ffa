package auth

import (
	"net/http"
	"time"
)

// CookieSettings describes how token cookies are written.
type CookieSettings struct {
	AccessName  string
	RefreshName string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Secure      bool
	Domain      string
}

func (c CookieSettings) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteNoneMode,
	}
}

func (c CookieSettings) SetAccess(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(c.AccessName, token, c.AccessTTL))
}

func (c CookieSettings) SetTokens(w http.ResponseWriter, t Tokens) {
	http.SetCookie(w, c.cookie(c.RefreshName, t.RefreshToken, c.RefreshTTL))
	c.SetAccess(w, t.AccessToken)
}

// Clear expires both token cookies.
func (c CookieSettings) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.AccessName, c.RefreshName} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1 // Max-Age=0
		http.SetCookie(w, ck)
	}
}

// read returns the access and refresh cookie values of r.
func (c CookieSettings) read(r *http.Request) (access, refresh string) {
	if ck, err := r.Cookie(c.AccessName); err == nil {
		access = ck.Value
	}
	if ck, err := r.Cookie(c.RefreshName); err == nil {
		refresh = ck.Value
	}
	return access, refresh
}
