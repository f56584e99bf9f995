// Package auth signs the admin in against the backend and persists the
// resulting session.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/session"
)

const (
	MsgUnreachable  = "Unable to reach the server. Please try again."
	MsgSignInFailed = "Sign in failed"
)

// LoginForm is the login screen form.
type LoginForm struct {
	Email      string `form:"email"`
	Password   string `form:"password"`
	RememberMe bool   `form:"rememberMe"`
}

// Outcome is what the login view shows after a submission.
type Outcome struct {
	Success     bool
	Message     string
	FieldErrors map[string]string
}

type Service struct {
	client *gateway.Client
	store  *session.Store
}

func NewService(client *gateway.Client, store *session.Store) *Service {
	return &Service{client: client, store: store}
}

// Login submits form to the backend. On success the token and user are
// stored in the scope chosen by RememberMe. Transport failures become an
// unsuccessful outcome with MsgUnreachable.
func (s *Service) Login(c *gin.Context, form LoginForm) (*Outcome, error) {
	res, err := s.client.Login(c.Request.Context(), model.LoginRequest{
		Email:      strings.TrimSpace(form.Email),
		Password:   form.Password,
		RememberMe: form.RememberMe,
	})
	switch {
	case errors.Is(err, gateway.ErrUnreachable):
		return &Outcome{Message: MsgUnreachable}, nil
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}

	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = MsgSignInFailed
		}
		return &Outcome{Message: msg, FieldErrors: model.FieldErrors(res.Errors)}, nil
	}

	s.store.Regenerate(c)
	if err := s.store.SetToken(c, res.Session.AccessToken, form.RememberMe); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	if err := s.store.SetUser(c, *res.User, form.RememberMe); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	log.Info().Str("user_id", res.User.ID).Str("scope", session.ScopeFor(form.RememberMe).String()).Msg("admin signed in")
	return &Outcome{Success: true, Message: res.Message}, nil
}

// Logout clears the session from both scopes.
func (s *Service) Logout(c *gin.Context) {
	s.store.ClearAuth(c)
}
