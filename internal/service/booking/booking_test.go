package booking

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afresh/afresh-web/internal/email"
	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/model"
)

func str(s string) *string { return &s }

func TestNormalizeFullRecord(t *testing.T) {
	got := Normalize(model.BookingDTO{
		FullName:       str("John Doe"),
		Email:          str("john@example.com"),
		PhoneNumber:    str("+234 803 111 2222"),
		Company:        str("Acme"),
		ProjectDetails: str("ERP rollout"),
		Status:         str("CONFIRMED"),
		CreatedAt:      str("2026-01-01T08:00:00Z"),
		ScheduledAt:    str("2026-02-26T14:05:00Z"),
		Location:       str("Lagos office"),
		Service:        str("Software Development"),
	}, time.UTC)

	assert.Equal(t, model.BookingDetail{
		Client:   "John Doe",
		Email:    "john@example.com",
		Phone:    "+234 803 111 2222",
		Service:  "Software Development",
		Status:   model.BookingConfirmed,
		Date:     "2026-02-26",
		DateTime: "2026-02-26 at 2:05 PM",
		Location: "Lagos office",
		Notes:    "ERP rollout",
	}, got)
}

func TestNormalizeFallbacks(t *testing.T) {
	got := Normalize(model.BookingDTO{Company: str("Acme"), CreatedAt: str("2026-03-01T09:30:00Z")}, nil)

	assert.Equal(t, "Acme", got.Client)
	assert.Equal(t, "Acme", got.Service)
	assert.Equal(t, model.BookingPending, got.Status)
	assert.Equal(t, "2026-03-01", got.Date)
	assert.Equal(t, "2026-03-01 at 9:30 AM", got.DateTime)
	assert.Equal(t, "Virtual Meeting", got.Location)
	assert.Empty(t, got.Notes)

	empty := Normalize(model.BookingDTO{}, nil)
	assert.Equal(t, "Client", empty.Client)
	assert.Equal(t, "Booking", empty.Service)
	assert.Empty(t, empty.Date)
	assert.Empty(t, empty.DateTime)
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]model.BookingStatus{
		"completed":  model.BookingCompleted,
		" Confirmed": model.BookingConfirmed,
		"cancelled":  model.BookingPending,
		"":           model.BookingPending,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Normalize(model.BookingDTO{Status: str(raw)}, nil).Status, raw)
	}
}

func TestNormalizeDateUsesUTCDayAndLocalTime(t *testing.T) {
	lagos := time.FixedZone("WAT", 60*60)
	got := Normalize(model.BookingDTO{ScheduledAt: str("2026-02-26T23:30:00Z")}, lagos)
	assert.Equal(t, "2026-02-26", got.Date)
	assert.Equal(t, "2026-02-26 at 12:30 AM", got.DateTime)
}

func TestNormalizeUnparseableDate(t *testing.T) {
	got := Normalize(model.BookingDTO{ScheduledAt: str("next tuesday")}, nil)
	assert.Empty(t, got.Date)
	assert.Empty(t, got.DateTime)
}

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newService(t *testing.T, handler http.HandlerFunc, sender email.Sender) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := gateway.New(gateway.Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)
	return NewService(client, email.NewService(sender), time.UTC)
}

func TestListAndGet(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, `[{"full_name":"Jane Smith","status":"confirmed"},{"company":"Acme"}]`)
	}, &fakeSender{})

	all, err := svc.List(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Jane Smith", all[0].Client)

	one, _, err := svc.Get(context.Background(), "tok", 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", one.Client)

	_, _, err = svc.Get(context.Background(), "tok", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFailure(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, &fakeSender{})

	_, err := svc.List(context.Background(), "tok")
	var se *gateway.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Failed to fetch bookings", se.Message)
}

func TestApplyStatus(t *testing.T) {
	svc := NewService(nil, email.NewService(&fakeSender{}), nil)
	d := model.BookingDetail{Status: model.BookingPending}

	got, errs := svc.ApplyStatus(d, StatusForm{Status: "Completed"})
	assert.Nil(t, errs)
	assert.Equal(t, model.BookingCompleted, got.Status)

	got, errs = svc.ApplyStatus(d, StatusForm{Status: "Lost"})
	assert.Contains(t, errs, "status")
	assert.Equal(t, model.BookingPending, got.Status)
}

func TestApplyReschedule(t *testing.T) {
	svc := NewService(nil, email.NewService(&fakeSender{}), nil)
	d := model.BookingDetail{Date: "2026-02-26", Location: "Virtual Meeting"}

	got, errs := svc.ApplyReschedule(d, RescheduleForm{NewDate: "2026-03-02", NewTime: "15:30", Location: " Lagos "})
	require.Nil(t, errs)
	assert.Equal(t, "2026-03-02", got.Date)
	assert.Equal(t, "2026-03-02 at 3:30 PM", got.DateTime)
	assert.Equal(t, "Lagos", got.Location)

	_, errs = svc.ApplyReschedule(d, RescheduleForm{NewDate: "03/02/2026"})
	assert.Equal(t, "Invalid format", errs["newDate"])
	assert.Equal(t, "This field is required", errs["newTime"])
}

func TestEmailDefaults(t *testing.T) {
	f := EmailDefaults(model.BookingDetail{Client: "Jane", Email: "jane@example.com", Service: "UI/UX Design"})
	assert.Equal(t, "jane@example.com", f.To)
	assert.Equal(t, "Jane", f.ClientName)
	assert.Equal(t, "Regarding your UI/UX Design booking.", f.Subject)
	assert.Empty(t, f.Message)
}

func TestSendEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(nil, email.NewService(sender), nil)

	errs, err := svc.SendEmail(context.Background(), email.Form{To: "jane@example.com", Subject: "Hi", Message: "See you"})
	require.NoError(t, err)
	assert.Nil(t, errs)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jane@example.com", sender.sent[0].To)

	errs, err = svc.SendEmail(context.Background(), email.Form{To: "nope"})
	require.NoError(t, err)
	assert.Contains(t, errs, "to")
	assert.Contains(t, errs, "message")
	assert.Len(t, sender.sent, 1)

	sender.err = errors.New("smtp down")
	_, err = svc.SendEmail(context.Background(), email.Form{To: "jane@example.com", Subject: "Hi", Message: "x"})
	assert.Error(t, err)
}
