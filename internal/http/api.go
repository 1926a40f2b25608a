package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vidhall/internal/domain"
	"vidhall/internal/service"
)

const (
	sessionCookie  = "session_token"
	contextUserKey = "current_user"
)

// VideoLister fetches the popular video listing from the upstream service.
type VideoLister interface {
	FetchPopular(ctx context.Context) ([]domain.VideoSummary, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth       service.AuthService
	videos     VideoLister
	secret     []byte
	sessionTTL time.Duration
}

func NewHandler(auth service.AuthService, videos VideoLister, secret string, sessionTTL time.Duration) *Handler {
	return &Handler{
		auth:       auth,
		videos:     videos,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

// Views reachable through /templates/:name. Anything else is a 404; the path
// segment never selects a file directly.
var allowedTemplates = map[string]string{
	"login":    "login.html",
	"register": "register.html",
	"main":     "main.html",
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/register", h.registerForm)
	router.POST("/register", h.register)

	protected := router.Group("/", h.requireSession())
	{
		protected.GET("", h.root)
		protected.GET("/logout", h.logout)
		protected.GET("/category/:page", h.category)
		protected.GET("/templates/:name", h.template)
	}

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	apiAuth := api.Group("", h.requireSession())
	{
		apiAuth.GET("/youtube/popular", h.popular)
	}
}

// requireSession resolves the session cookie into a user. API routes answer
// an unauthenticated request with a bare 401, browser routes with a redirect
// to the login form.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.currentUser(c)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				h.rejectUnauthenticated(c)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func (h *Handler) rejectUnauthenticated(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}

func (h *Handler) currentUser(c *gin.Context) (*domain.User, error) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, service.ErrInvalidCredentials
	}
	token, ok := h.verifyCookie(cookie)
	if !ok {
		return nil, service.ErrInvalidCredentials
	}
	return h.auth.Resolve(c.Request.Context(), token)
}

func (h *Handler) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (h *Handler) login(c *gin.Context) {
	login := c.PostForm("login")
	password := c.PostForm("password")

	session, err := h.auth.Login(c.Request.Context(), login, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.HTML(http.StatusOK, "login.html", gin.H{"ErrorMessage": "Incorrect account data"})
			return
		}
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	h.setSessionCookie(c, session.Token)
	c.Redirect(http.StatusSeeOther, "/category/popular")
}

func (h *Handler) registerForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

func (h *Handler) register(c *gin.Context) {
	login := c.PostForm("login")
	password := c.PostForm("password")
	email := c.PostForm("email")

	session, err := h.auth.Register(c.Request.Context(), login, password, email)
	if err != nil {
		if errors.Is(err, service.ErrLoginTaken) {
			c.HTML(http.StatusOK, "register.html", gin.H{"ErrorMessage": err.Error()})
			return
		}
		c.HTML(http.StatusOK, "register.html", gin.H{"ErrorMessage": "Registration failed"})
		return
	}

	h.setSessionCookie(c, session.Token)
	c.Redirect(http.StatusSeeOther, "/category/popular")
}

func (h *Handler) logout(c *gin.Context) {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		if token, ok := h.verifyCookie(cookie); ok {
			_ = h.auth.Logout(c.Request.Context(), token)
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) root(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/category/popular")
}

func (h *Handler) category(c *gin.Context) {
	c.HTML(http.StatusOK, "main.html", gin.H{
		"Page": c.Param("page"),
		"User": mustUser(c),
	})
}

func (h *Handler) template(c *gin.Context) {
	name, ok := allowedTemplates[strings.TrimSuffix(c.Param("name"), ".html")]
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.HTML(http.StatusOK, name, gin.H{"User": mustUser(c)})
}

type videoResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channel_title"`
}

func (h *Handler) popular(c *gin.Context) {
	videos, err := h.videos.FetchPopular(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "listing unavailable"})
		return
	}

	resp := make([]videoResponse, len(videos))
	for i := range videos {
		resp[i] = videoResponse{
			ID:           videos[i].ID,
			Title:        videos[i].Title,
			Thumbnail:    videos[i].Thumbnail,
			ChannelTitle: videos[i].ChannelTitle,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func mustUser(c *gin.Context) *domain.User {
	user, _ := c.Get(contextUserKey)
	u, _ := user.(*domain.User)
	return u
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, h.signCookie(token), int(h.sessionTTL.Seconds()), "/", "", false, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// The cookie value carries the opaque token plus an HMAC over it; a tampered
// cookie fails verification before any session lookup happens.
func (h *Handler) signCookie(token string) string {
	return token + "." + h.mac(token)
}

func (h *Handler) verifyCookie(value string) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx <= 0 {
		return "", false
	}
	token, sig := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(h.mac(token))) {
		return "", false
	}
	return token, true
}

func (h *Handler) mac(token string) string {
	m := hmac.New(sha256.New, h.secret)
	m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}
