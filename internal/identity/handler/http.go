// Package handler binds the auth service to the HTTP surface. Handlers stay
// thin: parse, call the service, map the failure kind to a status.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clayman083/passport/internal/config"
	"github.com/clayman083/passport/internal/identity/service"
	"github.com/clayman083/passport/internal/logging"
	"github.com/clayman083/passport/internal/security"
	"github.com/clayman083/passport/internal/server/middleware"
	userdomain "github.com/clayman083/passport/internal/user/domain"
)

// Response header names for the token endpoint family.
const (
	HeaderAccessToken  = "X-ACCESS-TOKEN"
	HeaderRefreshToken = "X-REFRESH-TOKEN"
)

// AuthHandler serves the /api endpoints.
type AuthHandler struct {
	auth *service.AuthService
	cfg  *config.Config
	log  logging.Logger
}

// NewAuthHandler returns an AuthHandler with the given dependencies.
func NewAuthHandler(auth *service.AuthService, cfg *config.Config, log logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg, log: log}
}

// RegisterRoutes attaches the auth endpoints to the group. The guard chain is
// composed here, per endpoint family: token-header guards for the bearer
// family, the session-cookie guard for the cookie family, and the combined
// guard where either mechanism is accepted.
func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/register", h.register)
	api.POST("/login", h.login)
	api.POST("/session/login", h.sessionLogin)
	api.POST("/tokens/refresh", h.refresh)
	api.GET("/tokens/access",
		middleware.SessionRequired(h.auth, h.cfg.SessionCookie), h.access)
	api.GET("/identify",
		middleware.TokenRequired(h.auth), h.profile)
	api.GET("/profile",
		middleware.UserRequired(h.auth, h.cfg.SessionCookie), h.profile)
	api.POST("/logout",
		middleware.SessionRequired(h.auth, h.cfg.SessionCookie), h.logout)
}

type credentialsPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	Key   int64  `json:"id"`
	Email string `json:"email"`
}

func userJSON(u *userdomain.User) gin.H {
	return gin.H{"user": userResponse{Key: u.Key, Email: u.Email}}
}

func (h *AuthHandler) register(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"payload": err.Error()}})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"email": "Already exist"}})
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	h.log.Info(c.Request.Context(), "user registered", "email", user.Email)
	c.JSON(http.StatusCreated, userJSON(user))
}

// login authenticates and responds in the token style: the user document in
// the body, credentials in the X-ACCESS-TOKEN / X-REFRESH-TOKEN headers.
func (h *AuthHandler) login(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"payload": err.Error()}})
		return
	}
	user, err := h.auth.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		abortForAuthErr(c, err)
		return
	}
	codec := h.auth.Codec()
	access, err := codec.Generate(user.Key, user.Email, security.TokenAccess, h.cfg.AccessTTL())
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	refresh, err := codec.Generate(user.Key, user.Email, security.TokenRefresh, h.cfg.RefreshTTL())
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	h.log.Info(c.Request.Context(), "user logged in", "email", user.Email)
	c.Header(HeaderAccessToken, access)
	c.Header(HeaderRefreshToken, refresh)
	c.JSON(http.StatusOK, userJSON(user))
}

// sessionLogin authenticates and responds in the session style: a server-side
// session record plus an httponly cookie carrying the opaque key.
func (h *AuthHandler) sessionLogin(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"payload": err.Error()}})
		return
	}
	user, err := h.auth.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		abortForAuthErr(c, err)
		return
	}
	sess, err := h.auth.StartSession(c.Request.Context(), user)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	h.log.Info(c.Request.Context(), "user logged in", "email", user.Email)
	c.SetCookie(h.cfg.SessionCookie, sess.Key,
		int(h.cfg.SessionTTL().Seconds()), "/", h.cfg.SessionDomain, false, true)
	c.JSON(http.StatusOK, userJSON(user))
}

// refresh exchanges a valid refresh token for a fresh access token. The user
// is re-fetched from the store so deactivation revokes refresh capability
// even while the token itself is still within its window.
func (h *AuthHandler) refresh(c *gin.Context) {
	token := c.GetHeader(HeaderRefreshToken)
	if token == "" {
		c.String(http.StatusUnauthorized, "Refresh token required")
		return
	}
	user, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		abortForAuthErr(c, err)
		return
	}
	access, err := h.auth.Codec().Generate(user.Key, user.Email, security.TokenAccess, h.cfg.AccessTTL())
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header(HeaderAccessToken, access)
	c.JSON(http.StatusOK, userJSON(user))
}

// access issues an access token for a session-authenticated caller.
func (h *AuthHandler) access(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	token, err := h.auth.Codec().Generate(user.Key, user.Email, security.TokenAccess, h.cfg.AccessTTL())
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header(HeaderAccessToken, token)
	c.JSON(http.StatusOK, userJSON(user))
}

func (h *AuthHandler) profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}

func (h *AuthHandler) logout(c *gin.Context) {
	key, err := c.Cookie(h.cfg.SessionCookie)
	if err == nil && key != "" {
		if err := h.auth.Logout(c.Request.Context(), key); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}
	if user, ok := middleware.CurrentUser(c); ok {
		h.log.Info(c.Request.Context(), "user logged out", "email", user.Email)
	}
	c.SetCookie(h.cfg.SessionCookie, "", -1, "/", h.cfg.SessionDomain, false, true)
	c.Status(http.StatusOK)
}

// abortForAuthErr maps service and codec failures to statuses: unknown or
// inactive user → 404, bad credentials or token failures → 403.
func abortForAuthErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.AbortWithStatus(http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, security.ErrBadToken),
		errors.Is(err, security.ErrTokenExpired):
		c.AbortWithStatus(http.StatusForbidden)
	default:
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
