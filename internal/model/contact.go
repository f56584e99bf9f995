package model

// ContactRequest is the public contact form payload.
type ContactRequest struct {
	Name    string `json:"name" form:"name" binding:"required"`
	Email   string `json:"email" form:"email" binding:"required,email"`
	Phone   string `json:"phone" form:"phone"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message" binding:"required"`
}

type ContactResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ContactSubmission is a received contact message as shown in the admin inbox.
type ContactSubmission struct {
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone" yaml:"phone"`
	Subject  string `json:"subject" yaml:"subject"`
	Date     string `json:"date" yaml:"date"`
	DateTime string `json:"dateTime" yaml:"dateTime"`
	Message  string `json:"message" yaml:"message"`
}
