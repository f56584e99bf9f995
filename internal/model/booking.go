package model

// BookingDTO is a booking record as returned by GET /api/bookings. Every
// field is optional on the wire.
type BookingDTO struct {
	ID             *string `json:"id,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	Email          *string `json:"email,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	Company        *string `json:"company,omitempty"`
	ProjectDetails *string `json:"project_details,omitempty"`
	Status         *string `json:"status,omitempty"`
	CreatedAt      *string `json:"created_at,omitempty"`
	ScheduledAt    *string `json:"scheduled_at,omitempty"`
	Location       *string `json:"location,omitempty"`
	Service        *string `json:"service,omitempty"`
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCompleted BookingStatus = "Completed"
)

// BookingStatuses lists the statuses offered by the update form, in order.
var BookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCompleted}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted:
		return true
	}
	return false
}

// BookingDetail is the display projection of a booking.
type BookingDetail struct {
	Client   string        `json:"client" yaml:"client"`
	Email    string        `json:"email" yaml:"email"`
	Phone    string        `json:"phone" yaml:"phone"`
	Service  string        `json:"service" yaml:"service"`
	Status   BookingStatus `json:"status" yaml:"status"`
	Date     string        `json:"date" yaml:"date"`
	DateTime string        `json:"dateTime" yaml:"dateTime"`
	Location string        `json:"location" yaml:"location"`
	Notes    string        `json:"notes" yaml:"notes"`
}
