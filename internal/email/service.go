// Package email delivers admin initiated messages (booking follow ups and
// contact replies) over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/afresh/afresh-web/pkg/validator"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("email delivery is not configured")

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// NewSender returns an SMTP sender, or one that always fails with ErrDisabled
// when cfg has no host.
func NewSender(cfg Config) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		return disabled{}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.compose(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

func (s *SMTPSender) compose(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}

type disabled struct{}

func (disabled) Send(context.Context, Message) error {
	return ErrDisabled
}

// Form is the "Send Email" form shared by the booking and contact views.
type Form struct {
	To         string `form:"to" binding:"required,email"`
	ClientName string `form:"clientName" binding:"oneline"`
	Subject    string `form:"subject" binding:"required,oneline"`
	Message    string `form:"message" binding:"required"`
}

func (f Form) ToMessage() Message {
	return Message{
		To:      strings.TrimSpace(f.To),
		ToName:  strings.TrimSpace(f.ClientName),
		Subject: strings.TrimSpace(f.Subject),
		Body:    f.Message,
	}
}

// Service validates "Send Email" forms and delivers them.
type Service struct {
	sender   Sender
	validate *validator.Validator
}

func NewService(sender Sender) *Service {
	return &Service{sender: sender, validate: validator.New()}
}

// SendForm returns field errors when form is invalid, otherwise the delivery
// error if any.
func (s *Service) SendForm(ctx context.Context, form Form) (map[string]string, error) {
	if errs := s.validate.Struct(form); errs != nil {
		return errs, nil
	}
	if err := s.sender.Send(ctx, form.ToMessage()); err != nil {
		return nil, err
	}
	return nil, nil
}

// Enabled reports whether messages can actually be delivered.
func (s *Service) Enabled() bool {
	_, off := s.sender.(disabled)
	return !off
}
