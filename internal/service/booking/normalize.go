package booking

import (
	"strings"
	"time"

	"github.com/afresh/afresh-web/internal/model"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalize projects a wire booking onto the display record. The date is the
// UTC calendar day of scheduled_at (or created_at); the clock time in the
// detail line is rendered in loc.
func Normalize(dto model.BookingDTO, loc *time.Location) model.BookingDetail {
	if loc == nil {
		loc = time.UTC
	}

	d := model.BookingDetail{
		Client:   firstOf("Client", dto.FullName, dto.Company),
		Email:    firstOf("", dto.Email),
		Phone:    firstOf("", dto.PhoneNumber),
		Service:  firstOf("Booking", dto.Service, dto.Company),
		Status:   statusOf(dto.Status),
		Location: firstOf("Virtual Meeting", dto.Location),
		Notes:    firstOf("", dto.ProjectDetails),
	}

	raw := firstOf("", dto.ScheduledAt, dto.CreatedAt)
	if ts, ok := parseTimestamp(raw); ok {
		d.Date = ts.UTC().Format("2006-01-02")
		d.DateTime = d.Date + " at " + ts.In(loc).Format("3:04 PM")
	}
	return d
}

// NormalizeAll keeps the backend order.
func NormalizeAll(dtos []model.BookingDTO, loc *time.Location) []model.BookingDetail {
	out := make([]model.BookingDetail, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, Normalize(dto, loc))
	}
	return out
}

// firstOf returns the first non-nil value, or def. Empty strings count as
// present.
func firstOf(def string, vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}

func statusOf(raw *string) model.BookingStatus {
	if raw == nil {
		return model.BookingPending
	}
	switch strings.ToLower(strings.TrimSpace(*raw)) {
	case "confirmed":
		return model.BookingConfirmed
	case "completed":
		return model.BookingCompleted
	default:
		return model.BookingPending
	}
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
