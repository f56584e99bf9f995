package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/middleware"
	"github.com/afresh/afresh-web/internal/service/auth"
	"github.com/afresh/afresh-web/internal/web"
)

// AdminHome is where a successful sign in lands.
const AdminHome = "/admin"

type loginView struct {
	Form   auth.LoginForm
	Errors map[string]string
}

type Handler struct {
	base    *handler.Base
	svc     *auth.Service
	limiter *middleware.RateLimiter
}

// NewHandler wires the login screen. limiter may be nil.
func NewHandler(base *handler.Base, svc *auth.Service, limiter *middleware.RateLimiter) *Handler {
	return &Handler{base: base, svc: svc, limiter: limiter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	login := []gin.HandlerFunc{h.Login}
	if h.limiter != nil {
		login = append([]gin.HandlerFunc{h.limiter.RateLimit()}, login...)
	}
	r.GET("/login", h.LoginPage)
	r.POST("/login", login...)
	r.POST("/logout", h.Logout)
}

func (h *Handler) render(c *gin.Context, status int, view loginView, notice *web.Notice) {
	page := h.base.Page(c, "Admin Sign In", "login")
	page.Notice = notice
	view.Form.Password = ""
	page.Data = view
	c.HTML(status, "login.html", page)
}

func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, loginView{}, nil)
}

// Login signs in and redirects to the dashboard, or shows the login screen
// again with the backend's message and per-field errors.
func (h *Handler) Login(c *gin.Context) {
	var form auth.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, loginView{Form: form}, web.Failure(auth.MsgSignInFailed))
		return
	}

	outcome, err := h.svc.Login(c, form)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("login failed")
		h.render(c, http.StatusInternalServerError, loginView{Form: form}, web.Failure(auth.MsgSignInFailed))
		return
	}
	if !outcome.Success {
		h.render(c, http.StatusUnauthorized, loginView{Form: form, Errors: outcome.FieldErrors}, web.Failure(outcome.Message))
		return
	}
	c.Redirect(http.StatusSeeOther, AdminHome)
}

func (h *Handler) Logout(c *gin.Context) {
	h.svc.Logout(c)
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
