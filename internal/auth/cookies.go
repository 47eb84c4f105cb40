package auth

import (
	"net/http"
	"time"
)

const (
	AccessTokenCookie  = "anonify_access"
	RefreshTokenCookie = "anonify_refresh"

	refreshCookiePath = "/api"

	// AuthModeHeader lets a client opt out of cookies and receive tokens in
	// the response body.
	AuthModeHeader = "X-Auth-Mode"
)

// ShouldUseCookies reports whether the caller is a browser that should get
// HttpOnly cookies instead of tokens in the body.
func ShouldUseCookies(r *http.Request) bool {
	if r.Header.Get(AuthModeHeader) == "token" {
		return false
	}
	return r.Header.Get("Origin") != "" || r.Header.Get("Sec-Fetch-Mode") != ""
}

// SetAuthCookies writes the access and refresh cookies.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, secure bool, accessDuration, refreshDuration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(accessDuration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     refreshCookiePath,
		MaxAge:   int(refreshDuration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAuthCookies expires both auth cookies.
func ClearAuthCookies(w http.ResponseWriter) {
	for _, c := range []struct{ name, path string }{
		{AccessTokenCookie, "/"},
		{RefreshTokenCookie, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}

func GetAccessTokenFromCookie(r *http.Request) (string, error) {
	return cookieValue(r, AccessTokenCookie)
}

func GetRefreshTokenFromCookie(r *http.Request) (string, error) {
	return cookieValue(r, RefreshTokenCookie)
}

func cookieValue(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	if c.Value == "" {
		return "", http.ErrNoCookie
	}
	return c.Value, nil
}
