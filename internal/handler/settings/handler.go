// Package settings serves the admin account settings tabs. There is no
// settings endpoint on the backend, so submissions are validated and echoed
// back without being stored.
package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/service/content"
	"github.com/afresh/afresh-web/internal/web"
	apperrors "github.com/afresh/afresh-web/pkg/errors"
	"github.com/afresh/afresh-web/pkg/validator"
)

const MsgNotStored = "Your changes look good, but settings cannot be saved yet."

type Tab struct {
	ID    string
	Label string
}

var Tabs = []Tab{
	{ID: "profile", Label: "Profile"},
	{ID: "company", Label: "Company"},
	{ID: "notifications", Label: "Notifications"},
	{ID: "security", Label: "Security"},
}

type SecurityForm struct {
	CurrentPassword string `form:"currentPassword" binding:"required"`
	NewPassword     string `form:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `form:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

type settingsView struct {
	Tab      string
	Tabs     []Tab
	Settings content.Settings
	Errors   map[string]string
}

type Handler struct {
	base    *handler.Base
	content *content.Service
}

func NewHandler(base *handler.Base, content *content.Service) *Handler {
	return &Handler{base: base, content: content}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.Show)
	r.POST("/settings", h.Save)
}

func tabOf(id string) string {
	for _, t := range Tabs {
		if t.ID == id {
			return id
		}
	}
	return Tabs[0].ID
}

func (h *Handler) render(c *gin.Context, status int, view settingsView, notice *web.Notice) {
	view.Tabs = Tabs
	page := h.base.Page(c, "Settings", "settings")
	page.Notice = notice
	page.Data = view
	c.HTML(status, "admin/settings.html", page)
}

func (h *Handler) Show(c *gin.Context) {
	h.render(c, http.StatusOK, settingsView{
		Tab:      tabOf(c.Query("tab")),
		Settings: h.content.Content().Settings,
	}, nil)
}

// Save validates the submitted tab. Read only profile fields keep their
// configured values.
func (h *Handler) Save(c *gin.Context) {
	view := settingsView{
		Tab:      tabOf(c.PostForm("tab")),
		Settings: h.content.Content().Settings,
	}

	var err error
	switch view.Tab {
	case "profile":
		err = c.ShouldBind(&view.Settings.Profile)
	case "company":
		err = c.ShouldBind(&view.Settings.Company)
	case "notifications":
		view.Settings.Notifications = content.Notifications{}
		err = c.ShouldBind(&view.Settings.Notifications)
	default:
		var form SecurityForm
		err = c.ShouldBind(&form)
	}
	if view.Errors = validator.FieldErrors(err); view.Errors != nil {
		h.render(c, http.StatusUnprocessableEntity, view, web.Failure("Please fix the highlighted fields"))
		return
	}
	if err != nil {
		handler.Abort(c, apperrors.BadRequest("Invalid form submission", err))
		return
	}
	h.render(c, http.StatusOK, view, web.Info(MsgNotStored))
}
