// Package booking loads bookings from the backend and prepares the admin
// booking actions.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/afresh/afresh-web/internal/email"
	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/pkg/validator"
)

var ErrNotFound = errors.New("booking not found")

type Service struct {
	client   *gateway.Client
	mailer   *email.Service
	loc      *time.Location
	validate *validator.Validator
}

func NewService(client *gateway.Client, mailer *email.Service, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		client:   client,
		mailer:   mailer,
		loc:      loc,
		validate: validator.New(),
	}
}

// List fetches and normalizes every booking.
func (s *Service) List(ctx context.Context, token string) ([]model.BookingDetail, error) {
	dtos, err := s.client.WithToken(token).FetchBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return NormalizeAll(dtos, s.loc), nil
}

// Get returns the booking at index in backend order.
func (s *Service) Get(ctx context.Context, token string, index int) (*model.BookingDetail, []model.BookingDetail, error) {
	all, err := s.List(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(all) {
		return nil, all, ErrNotFound
	}
	return &all[index], all, nil
}

type StatusForm struct {
	Status string `form:"status" binding:"required,oneof=Pending Confirmed Completed"`
}

type RescheduleForm struct {
	NewDate  string `form:"newDate" binding:"required,datetime=2006-01-02"`
	NewTime  string `form:"newTime" binding:"required,datetime=15:04"`
	Location string `form:"location"`
	Reason   string `form:"reason"`
}

// EmailDefaults prefills the "Send Email" form for d.
func EmailDefaults(d model.BookingDetail) email.Form {
	return email.Form{
		To:         d.Email,
		ClientName: d.Client,
		Subject:    fmt.Sprintf("Regarding your %s booking.", d.Service),
	}
}

// RescheduleDefaults prefills the reschedule form from the current booking.
func RescheduleDefaults(d model.BookingDetail) RescheduleForm {
	return RescheduleForm{NewDate: d.Date, Location: d.Location}
}

// ApplyStatus validates form and returns d with the new status. Nothing is
// sent to the backend.
func (s *Service) ApplyStatus(d model.BookingDetail, form StatusForm) (model.BookingDetail, map[string]string) {
	if errs := s.check(form); errs != nil {
		return d, errs
	}
	d.Status = model.BookingStatus(form.Status)
	return d, nil
}

// ApplyReschedule validates form and returns d moved to the new slot. Nothing
// is sent to the backend.
func (s *Service) ApplyReschedule(d model.BookingDetail, form RescheduleForm) (model.BookingDetail, map[string]string) {
	if errs := s.check(form); errs != nil {
		return d, errs
	}
	ts, _ := time.Parse("2006-01-02 15:04", form.NewDate+" "+form.NewTime)
	d.Date = form.NewDate
	d.DateTime = form.NewDate + " at " + ts.Format("3:04 PM")
	if loc := strings.TrimSpace(form.Location); loc != "" {
		d.Location = loc
	}
	return d, nil
}

// SendEmail validates form and hands the message to the mailer.
func (s *Service) SendEmail(ctx context.Context, form email.Form) (map[string]string, error) {
	errs, err := s.mailer.SendForm(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("send booking email: %w", err)
	}
	return errs, nil
}

func (s *Service) check(form interface{}) map[string]string {
	return s.validate.Struct(form)
}
