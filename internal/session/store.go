// Package session persists the admin authentication token and user record in
// one of two scopes. Each scope is a slot stored server side and referenced by
// a scope specific cookie.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/pkg/metrics"
	"github.com/afresh/afresh-web/pkg/security"
)

const (
	TokenKey = "afresh_admin_token"
	UserKey  = "afresh_admin_user"

	// ContextKey holds the *Session loaded by the admin guard.
	ContextKey = "session"
)

type Config struct {
	CookiePrefix string
	TabTTL       time.Duration
	DurableTTL   time.Duration
	Secure       bool
	Secret       string
}

// Session is the authentication context handed to code that talks to the
// backend on the admin's behalf.
type Session struct {
	Token string
	User  *model.User
	Scope Scope
}

type Store struct {
	backend Backend
	sealer  *security.Sealer
	cfg     Config
	metrics *metrics.Metrics
}

type record map[string]string

// NewStore builds a store over backend. m may be nil.
func NewStore(backend Backend, cfg Config, m *metrics.Metrics) (*Store, error) {
	if backend == nil {
		return nil, errors.New("session backend is required")
	}
	sealer, err := security.NewSealerFor([]byte(cfg.Secret), "session")
	if err != nil {
		return nil, fmt.Errorf("session sealer: %w", err)
	}
	if cfg.CookiePrefix == "" {
		cfg.CookiePrefix = "afresh"
	}
	if cfg.TabTTL <= 0 {
		cfg.TabTTL = 12 * time.Hour
	}
	if cfg.DurableTTL <= 0 {
		cfg.DurableTTL = 30 * 24 * time.Hour
	}
	return &Store{backend: backend, sealer: sealer, cfg: cfg, metrics: m}, nil
}

func (s *Store) Backend() Backend {
	return s.backend
}

// CookieName returns the cookie that carries the slot id for scope.
func (s *Store) CookieName(scope Scope) string {
	return s.cfg.CookiePrefix + "_" + scope.String()
}

// SetToken stores token in the scope chosen by remember and removes it from
// the other scope.
func (s *Store) SetToken(c *gin.Context, token string, remember bool) error {
	return s.setExclusive(c, TokenKey, token, ScopeFor(remember))
}

// GetToken returns the tab scoped token if present, else the durable one.
func (s *Store) GetToken(c *gin.Context) (string, bool) {
	token, _, ok := s.lookup(c, TokenKey)
	return token, ok
}

func (s *Store) SetUser(c *gin.Context, user model.User, remember bool) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.setExclusive(c, UserKey, string(b), ScopeFor(remember))
}

// GetUser returns the stored user. A value that does not decode reads as absent.
func (s *Store) GetUser(c *gin.Context) (*model.User, bool) {
	raw, _, ok := s.lookup(c, UserKey)
	if !ok {
		return nil, false
	}
	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Debug().Err(err).Msg("stored user is not valid json")
		return nil, false
	}
	return &user, true
}

// ClearAuth removes the token and user from both scopes.
func (s *Store) ClearAuth(c *gin.Context) {
	for _, scope := range []Scope{ScopeTab, ScopeDurable} {
		if err := s.remove(c, scope, TokenKey, UserKey); err != nil {
			log.Warn().Err(err).Str("scope", scope.String()).Msg("failed to clear session scope")
		}
	}
}

// Load returns the current session, or nil when no token is stored.
func (s *Store) Load(c *gin.Context) *Session {
	token, scope, ok := s.lookup(c, TokenKey)
	if !ok {
		return nil
	}
	sess := &Session{Token: token, Scope: scope}
	if user, ok := s.GetUser(c); ok {
		sess.User = user
	}
	return sess
}

// FromContext returns the session placed in c by the admin guard.
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

// Regenerate drops the slots named by the request cookies so the next write
// starts under fresh ids. Call it before storing credentials for a new login.
func (s *Store) Regenerate(c *gin.Context) {
	for _, scope := range []Scope{ScopeTab, ScopeDurable} {
		id := s.slotID(c, scope)
		if id == "" {
			continue
		}
		start := time.Now()
		err := s.backend.Delete(c.Request.Context(), id)
		s.observe("delete", start, err)
		if err != nil {
			log.Warn().Err(err).Str("scope", scope.String()).Msg("failed to drop session slot")
		}
		s.bindSlot(c, scope, "")
	}
}

func (s *Store) setExclusive(c *gin.Context, key, value string, scope Scope) error {
	if err := s.write(c, scope, key, value); err != nil {
		return err
	}
	return s.remove(c, scope.other(), key)
}

func (s *Store) lookup(c *gin.Context, key string) (string, Scope, bool) {
	for _, scope := range []Scope{ScopeTab, ScopeDurable} {
		rec := s.read(c, scope)
		if v, ok := rec[key]; ok {
			return v, scope, true
		}
	}
	return "", ScopeNone, false
}

func (s *Store) ttl(scope Scope) time.Duration {
	if scope == ScopeDurable {
		return s.cfg.DurableTTL
	}
	return s.cfg.TabTTL
}

func slotContextKey(scope Scope) string {
	return "session.slot." + scope.String()
}

// slotID returns the slot id for scope, preferring one assigned earlier in
// the same request over the request cookie.
func (s *Store) slotID(c *gin.Context, scope Scope) string {
	if v, ok := c.Get(slotContextKey(scope)); ok {
		id, _ := v.(string)
		return id
	}
	id, err := c.Cookie(s.CookieName(scope))
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

func (s *Store) bindSlot(c *gin.Context, scope Scope, id string) {
	c.Set(slotContextKey(scope), id)

	maxAge := 0
	switch {
	case id == "":
		maxAge = -1
	case scope == ScopeDurable:
		maxAge = int(s.cfg.DurableTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.CookieName(scope), id, maxAge, "/", "", s.cfg.Secure, true)
}

// read returns the record for scope. Missing, expired and unreadable slots all
// read as empty, as do backend failures.
func (s *Store) read(c *gin.Context, scope Scope) record {
	rec, err := s.load(c, scope)
	if err != nil {
		log.Warn().Err(err).Str("scope", scope.String()).Msg("failed to load session slot")
		return nil
	}
	return rec
}

// load is read without the fallback: backend failures other than ErrNoSlot
// are returned.
func (s *Store) load(c *gin.Context, scope Scope) (record, error) {
	id := s.slotID(c, scope)
	if id == "" {
		return nil, nil
	}

	start := time.Now()
	sealed, err := s.backend.Load(c.Request.Context(), id)
	s.observe("load", start, err)
	if errors.Is(err, ErrNoSlot) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	plain, err := s.sealer.Open(sealed, []byte(id))
	if err != nil {
		log.Warn().Err(err).Str("scope", scope.String()).Msg("discarding unreadable session slot")
		return nil, nil
	}
	var rec record
	if err := json.Unmarshal(plain, &rec); err != nil {
		log.Warn().Err(err).Str("scope", scope.String()).Msg("discarding malformed session slot")
		return nil, nil
	}
	return rec, nil
}

func (s *Store) write(c *gin.Context, scope Scope, key, value string) error {
	id := s.slotID(c, scope)
	rec, err := s.load(c, scope)
	if err != nil {
		return fmt.Errorf("load %s slot: %w", scope, err)
	}
	if rec == nil {
		// only ids backed by a live slot are reused; anything else the
		// browser sent is replaced
		rec, id = record{}, ""
	}
	rec[key] = value

	fresh := id == ""
	if fresh {
		id = uuid.NewString()
	}
	if err := s.save(c, scope, id, rec); err != nil {
		return err
	}
	if fresh {
		s.bindSlot(c, scope, id)
	} else if scope == ScopeDurable {
		// refresh the cookie so it expires together with the slot
		s.bindSlot(c, scope, id)
	}
	return nil
}

func (s *Store) remove(c *gin.Context, scope Scope, keys ...string) error {
	id := s.slotID(c, scope)
	if id == "" {
		return nil
	}
	rec := s.read(c, scope)
	for _, k := range keys {
		delete(rec, k)
	}
	if len(rec) > 0 {
		return s.save(c, scope, id, rec)
	}

	start := time.Now()
	err := s.backend.Delete(c.Request.Context(), id)
	s.observe("delete", start, err)
	s.bindSlot(c, scope, "")
	if err != nil {
		return fmt.Errorf("delete %s slot: %w", scope, err)
	}
	return nil
}

func (s *Store) save(c *gin.Context, scope Scope, id string, rec record) error {
	plain, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s slot: %w", scope, err)
	}
	sealed, err := s.sealer.Seal(plain, []byte(id))
	if err != nil {
		return fmt.Errorf("seal %s slot: %w", scope, err)
	}

	start := time.Now()
	err = s.backend.Save(c.Request.Context(), id, sealed, s.ttl(scope))
	s.observe("save", start, err)
	if err != nil {
		return fmt.Errorf("save %s slot: %w", scope, err)
	}
	return nil
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, ErrNoSlot):
		status = "miss"
	case err != nil:
		status = "error"
	}
	s.metrics.SessionOperations.WithLabelValues(s.backend.Name(), op, status).Inc()
	s.metrics.SessionLatency.WithLabelValues(s.backend.Name(), op).Observe(time.Since(start).Seconds())
}
