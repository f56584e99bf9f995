// Package booking serves the admin bookings table and its detail modal.
package booking

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/afresh/afresh-web/internal/email"
	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/service/auth"
	bookingService "github.com/afresh/afresh-web/internal/service/booking"
	"github.com/afresh/afresh-web/internal/session"
	"github.com/afresh/afresh-web/internal/web"
	apperrors "github.com/afresh/afresh-web/pkg/errors"
)

const (
	MsgLoadFailed   = "Failed to load bookings"
	MsgNotSaved     = "The change is shown here only. It has not been saved to the backend."
	MsgMailOff      = "Email is not configured on this server."
	MsgMailFailed   = "Failed to send email."
	panelStatus     = "status"
	panelReschedule = "reschedule"
	panelEmail      = "email"
)

type bookingsView struct {
	Bookings    []model.BookingDetail
	Selected    *model.BookingDetail
	Index       int
	Panel       string
	Statuses    []model.BookingStatus
	Status      bookingService.StatusForm
	Reschedule  bookingService.RescheduleForm
	Email       email.Form
	Errors      map[string]string
	MailEnabled bool
}

type Handler struct {
	base   *handler.Base
	svc    *bookingService.Service
	mailer *email.Service
}

func NewHandler(base *handler.Base, svc *bookingService.Service, mailer *email.Service) *Handler {
	return &Handler{base: base, svc: svc, mailer: mailer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", h.List)
		bookings.POST("/:index/status", h.UpdateStatus)
		bookings.POST("/:index/reschedule", h.Reschedule)
		bookings.POST("/:index/email", h.SendEmail)
	}
}

func token(c *gin.Context) string {
	if sess := session.FromContext(c); sess != nil {
		return sess.Token
	}
	return ""
}

func (h *Handler) render(c *gin.Context, status int, view bookingsView, notice *web.Notice) {
	view.Statuses = model.BookingStatuses
	view.MailEnabled = h.mailer.Enabled()
	page := h.base.Page(c, "Bookings", "bookings")
	page.Notice = notice
	page.Data = view
	c.HTML(status, "admin/bookings.html", page)
}

func loadFailure(err error) *web.Notice {
	if errors.Is(err, gateway.ErrUnreachable) {
		return web.Failure(auth.MsgUnreachable)
	}
	var se *gateway.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return web.Failure(se.Message)
	}
	return web.Failure(MsgLoadFailed)
}

// open loads the bookings and selects the one at index. It renders the page
// itself and returns false when that is not possible.
func (h *Handler) open(c *gin.Context, raw string) (bookingsView, bool) {
	index, ok := handler.Index(raw)
	if !ok {
		handler.Abort(c, apperrors.NotFound("Booking", nil))
		return bookingsView{}, false
	}

	selected, all, err := h.svc.Get(c.Request.Context(), token(c), index)
	switch {
	case errors.Is(err, bookingService.ErrNotFound):
		handler.Abort(c, apperrors.NotFound("Booking", err))
		return bookingsView{}, false
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("failed to load bookings")
		h.render(c, http.StatusBadGateway, bookingsView{}, loadFailure(err))
		return bookingsView{}, false
	}
	return bookingsView{Bookings: all, Selected: selected, Index: index}, true
}

// List shows every booking. ?view=N opens booking N and &panel= one of its
// status, reschedule or email forms.
func (h *Handler) List(c *gin.Context) {
	raw, viewing := c.GetQuery("view")
	if !viewing {
		all, err := h.svc.List(c.Request.Context(), token(c))
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("failed to load bookings")
			h.render(c, http.StatusBadGateway, bookingsView{}, loadFailure(err))
			return
		}
		h.render(c, http.StatusOK, bookingsView{Bookings: all}, nil)
		return
	}

	view, ok := h.open(c, raw)
	if !ok {
		return
	}
	switch view.Panel = c.Query("panel"); view.Panel {
	case panelStatus:
		view.Status = bookingService.StatusForm{Status: string(view.Selected.Status)}
	case panelReschedule:
		view.Reschedule = bookingService.RescheduleDefaults(*view.Selected)
	case panelEmail:
		view.Email = bookingService.EmailDefaults(*view.Selected)
	default:
		view.Panel = ""
	}
	h.render(c, http.StatusOK, view, nil)
}

// UpdateStatus validates the new status and shows it in the modal. There is
// no backend endpoint for bookings changes, so nothing is persisted.
func (h *Handler) UpdateStatus(c *gin.Context) {
	view, ok := h.open(c, c.Param("index"))
	if !ok {
		return
	}
	var form bookingService.StatusForm
	if _, err := handler.Bind(c, &form); err != nil {
		handler.Abort(c, err)
		return
	}

	updated, errs := h.svc.ApplyStatus(*view.Selected, form)
	if errs != nil {
		view.Panel, view.Status, view.Errors = panelStatus, form, errs
		h.render(c, http.StatusUnprocessableEntity, view, nil)
		return
	}
	h.show(c, view, updated, fmt.Sprintf("Status set to %s. %s", updated.Status, MsgNotSaved))
}

// Reschedule validates the new slot and shows it in the modal without
// persisting it.
func (h *Handler) Reschedule(c *gin.Context) {
	view, ok := h.open(c, c.Param("index"))
	if !ok {
		return
	}
	var form bookingService.RescheduleForm
	if _, err := handler.Bind(c, &form); err != nil {
		handler.Abort(c, err)
		return
	}

	updated, errs := h.svc.ApplyReschedule(*view.Selected, form)
	if errs != nil {
		view.Panel, view.Reschedule, view.Errors = panelReschedule, form, errs
		h.render(c, http.StatusUnprocessableEntity, view, nil)
		return
	}
	h.show(c, view, updated, fmt.Sprintf("Rescheduled to %s. %s", updated.DateTime, MsgNotSaved))
}

func (h *Handler) show(c *gin.Context, view bookingsView, updated model.BookingDetail, msg string) {
	view.Bookings[view.Index] = updated
	view.Selected = &view.Bookings[view.Index]
	h.render(c, http.StatusOK, view, web.Info(msg))
}

// SendEmail mails the client of the selected booking.
func (h *Handler) SendEmail(c *gin.Context) {
	view, ok := h.open(c, c.Param("index"))
	if !ok {
		return
	}
	var form email.Form
	if _, err := handler.Bind(c, &form); err != nil {
		handler.Abort(c, err)
		return
	}

	errs, err := h.svc.SendEmail(c.Request.Context(), form)
	view.Panel, view.Email, view.Errors = panelEmail, form, errs
	switch {
	case errs != nil:
		h.render(c, http.StatusUnprocessableEntity, view, nil)
	case errors.Is(err, email.ErrDisabled):
		h.render(c, http.StatusServiceUnavailable, view, web.Failure(MsgMailOff))
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to send booking email")
		h.render(c, http.StatusBadGateway, view, web.Failure(MsgMailFailed))
	default:
		view.Panel, view.Email = "", email.Form{}
		h.render(c, http.StatusOK, view, web.Success("Email sent to "+form.To+"."))
	}
}
