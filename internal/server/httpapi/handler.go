package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/config"
	"github.com/swaphubteam/SwapIt/internal/server/models"
	"github.com/swaphubteam/SwapIt/internal/server/services"
)

// AuthService is the business API the handlers drive.
type AuthService interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Logout(ctx context.Context, token string) error
	CheckAuth(ctx context.Context, token string) (*models.PublicUser, error)
	ResetPassword(ctx context.Context, in services.ResetInput) error
	CompleteReset(ctx context.Context, in services.CompleteResetInput) error
	GoogleConfig() (string, error)
	GoogleLogin(ctx context.Context, code string) (*services.AuthResult, error)
	UpdateProfile(ctx context.Context, token string, in services.ProfileInput) (*models.PublicUser, error)
}

const actionUpdateProfile = "update_profile"

type action struct {
	run func(c *gin.Context, p params)
	// safe actions may arrive as GET
	safe bool
}

// Handler serves the action endpoints.
type Handler struct {
	svc        AuthService
	cookies    *CookieHelper
	logger     logging.Logger
	production bool
	maxBody    int64
	actions    map[string]action
}

func NewHandler(svc AuthService, cfg *config.Config, logger logging.Logger) *Handler {
	h := &Handler{
		svc:        svc,
		cookies:    NewCookieHelper(cfg.SessionCookieName, cfg.CookieDomain, cfg.SecureCookies(), cfg.SessionTTL),
		logger:     logger.With("module", "httpapi"),
		production: cfg.IsProduction(),
		maxBody:    cfg.MaxRequestBytes,
	}

	h.actions = map[string]action{
		"signup":            {run: h.signup},
		"login":             {run: h.login},
		"logout":            {run: h.logout},
		"check_auth":        {run: h.checkAuth, safe: true},
		"reset_password":    {run: h.resetPassword},
		"complete_reset":    {run: h.completeReset},
		"get_google_config": {run: h.googleConfig, safe: true},
		"google_login":      {run: h.googleLogin},
	}
	return h
}

// Auth dispatches on the action field of /api/auth.
func (h *Handler) Auth(c *gin.Context) {
	p, ok := h.params(c)
	if !ok {
		return
	}

	a, found := h.actions[p.get("action")]
	if !found {
		invalidAction(c)
		return
	}
	if !a.safe && c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "Method not allowed"})
		return
	}
	a.run(c, p)
}

// Profile serves /api/profile, whose only action is update_profile.
func (h *Handler) Profile(c *gin.Context) {
	p, ok := h.params(c)
	if !ok {
		return
	}

	if a := p.get("action"); a != "" && a != actionUpdateProfile {
		invalidAction(c)
		return
	}
	h.updateProfile(c, p)
}

func (h *Handler) params(c *gin.Context) (params, bool) {
	p, err := readParams(c, h.maxBody)
	switch {
	case errors.Is(err, errBodyTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "Request is too large"})
		return nil, false
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return nil, false
	}
	return p, true
}

func invalidAction(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid action"})
}

func (h *Handler) signup(c *gin.Context, p params) {
	res, err := h.svc.Signup(c.Request.Context(), services.SignupInput{
		Email:    p.get("email"),
		Password: p.get("password"),
		FullName: p.get("full_name"),
	})
	if err != nil {
		h.fail(c, "signup", err)
		return
	}

	h.cookies.SetSession(c, res.Session.Token)
	recordOutcome("signup", "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account created successfully", "user": res.User})
}

func (h *Handler) login(c *gin.Context, p params) {
	res, err := h.svc.Login(c.Request.Context(), services.LoginInput{
		Email:    p.get("email"),
		Password: p.get("password"),
	})
	h.finishLogin(c, "login", res, err)
}

func (h *Handler) googleLogin(c *gin.Context, p params) {
	code := p.get("code")
	if code == "" {
		h.fail(c, "google_login", &services.ValidationError{Field: "code", Message: "Authorization code is required"})
		return
	}

	res, err := h.svc.GoogleLogin(c.Request.Context(), code)
	h.finishLogin(c, "google_login", res, err)
}

func (h *Handler) finishLogin(c *gin.Context, name string, res *services.AuthResult, err error) {
	if err != nil {
		h.fail(c, name, err)
		return
	}

	h.cookies.SetSession(c, res.Session.Token)
	recordOutcome(name, "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful", "user": res.User})
}

func (h *Handler) logout(c *gin.Context, _ params) {
	if token := h.cookies.Session(c); token != "" {
		_ = h.svc.Logout(c.Request.Context(), token)
	}

	h.cookies.ClearSession(c)
	recordOutcome("logout", "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// checkAuth answers 200 whatever happens; the body says whether the
// cookie identifies a user.
func (h *Handler) checkAuth(c *gin.Context, _ params) {
	token := h.cookies.Session(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	u, err := h.svc.CheckAuth(c.Request.Context(), token)
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		h.cookies.ClearSession(c)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	case err != nil:
		h.logger.Error(c.Request.Context(), "check auth", "error", err.Error())
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (h *Handler) resetPassword(c *gin.Context, p params) {
	if err := h.svc.ResetPassword(c.Request.Context(), services.ResetInput{Email: p.get("email")}); err != nil {
		h.fail(c, "reset_password", err)
		return
	}

	recordOutcome("reset_password", "success")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If an account exists for this email, a password reset link has been sent",
	})
}

func (h *Handler) completeReset(c *gin.Context, p params) {
	err := h.svc.CompleteReset(c.Request.Context(), services.CompleteResetInput{
		Token:    p.get("token"),
		Password: p.get("password"),
	})
	if err != nil {
		h.fail(c, "complete_reset", err)
		return
	}

	recordOutcome("complete_reset", "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Your password has been updated"})
}

func (h *Handler) googleConfig(c *gin.Context, _ params) {
	id, err := h.svc.GoogleConfig()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Google sign-in is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "clientId": id})
}

func (h *Handler) updateProfile(c *gin.Context, p params) {
	var in services.ProfileInput
	in.FullName, _ = p.lookup("full_name")
	in.AvatarURL, _ = p.lookup("avatar_url")

	u, err := h.svc.UpdateProfile(c.Request.Context(), h.cookies.Session(c), in)
	if err != nil {
		h.fail(c, actionUpdateProfile, err)
		return
	}

	recordOutcome(actionUpdateProfile, "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated successfully", "user": u})
}
