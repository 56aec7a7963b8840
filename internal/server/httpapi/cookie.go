package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieHelper writes and reads the session cookie.
type CookieHelper struct {
	name   string
	domain string
	secure bool
	maxAge int
}

// NewCookieHelper builds a helper for cookie name. ttl becomes Max-Age.
func NewCookieHelper(name, domain string, secure bool, ttl time.Duration) *CookieHelper {
	return &CookieHelper{name: name, domain: domain, secure: secure, maxAge: int(ttl.Seconds())}
}

// SetSession stores token in the session cookie.
func (h *CookieHelper) SetSession(c *gin.Context, token string) {
	h.set(c, token, h.maxAge)
}

// ClearSession expires the session cookie in the browser.
func (h *CookieHelper) ClearSession(c *gin.Context) {
	h.set(c, "", -1)
}

// Session returns the session token or "" when the request has none.
func (h *CookieHelper) Session(c *gin.Context) string {
	v, err := c.Cookie(h.name)
	if err != nil {
		return ""
	}
	return v
}

func (h *CookieHelper) set(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.name, value, maxAge, "/", h.domain, h.secure, true)
}
