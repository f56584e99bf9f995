package model

type ServiceStatus string

const (
	ServiceActive   ServiceStatus = "Active"
	ServiceInactive ServiceStatus = "Inactive"
)

// StatusFromVisible derives the displayed status from the visibility flag.
func StatusFromVisible(visible bool) ServiceStatus {
	if visible {
		return ServiceActive
	}
	return ServiceInactive
}

func (s ServiceStatus) Visible() bool {
	return s == ServiceActive
}

// ServiceItem is a service catalog entry as served by the admin API.
type ServiceItem struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Category      string        `json:"category"`
	PriceRange    string        `json:"priceRange"`
	TotalBookings int           `json:"totalBookings"`
	Status        ServiceStatus `json:"status"`
	Visible       *bool         `json:"visible,omitempty"`
}

type CreateServiceRequest struct {
	Title      string `json:"title" form:"title" binding:"required"`
	Category   string `json:"category" form:"category"`
	PriceRange string `json:"priceRange" form:"priceRange"`
	Visible    *bool  `json:"visible" form:"visible"`
}

// UpdateServiceRequest carries only the fields being changed.
type UpdateServiceRequest struct {
	Title      *string `json:"title,omitempty"`
	Category   *string `json:"category,omitempty"`
	PriceRange *string `json:"priceRange,omitempty"`
	Visible    *bool   `json:"visible,omitempty"`
}

// ServiceResult is the outcome of create, update, toggle and delete calls.
// Service is nil for deletes and failures.
type ServiceResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Service *ServiceItem `json:"service,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}
