package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/afresh/afresh-web/internal/email"
	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/handler/auth"
	"github.com/afresh/afresh-web/internal/handler/booking"
	"github.com/afresh/afresh-web/internal/handler/catalog"
	"github.com/afresh/afresh-web/internal/handler/contact"
	"github.com/afresh/afresh-web/internal/handler/health"
	"github.com/afresh/afresh-web/internal/handler/overview"
	"github.com/afresh/afresh-web/internal/handler/prometheus"
	"github.com/afresh/afresh-web/internal/handler/public"
	"github.com/afresh/afresh-web/internal/handler/settings"
	"github.com/afresh/afresh-web/internal/middleware"
	"github.com/afresh/afresh-web/internal/model"
	authService "github.com/afresh/afresh-web/internal/service/auth"
	bookingService "github.com/afresh/afresh-web/internal/service/booking"
	catalogService "github.com/afresh/afresh-web/internal/service/catalog"
	"github.com/afresh/afresh-web/internal/service/content"
	"github.com/afresh/afresh-web/internal/session"
	"github.com/afresh/afresh-web/internal/web"
	"github.com/afresh/afresh-web/pkg/metrics"
)

// backend is an in memory stand in for the AfrESH API.
type backend struct {
	mu       sync.Mutex
	services map[string]*model.ServiceItem
	order    []string
	deletes  map[string]int
	contacts []model.ContactRequest
}

func newBackend() *backend {
	return &backend{
		services: map[string]*model.ServiceItem{
			"s1": {ID: "s1", Title: "UI/UX Design", Category: "Design", PriceRange: "₦500,000+", Status: model.ServiceActive},
			"s2": {ID: "s2", Title: "Cyber Security", Category: "Security", Status: model.ServiceInactive},
		},
		order:   []string{"s1", "s2"},
		deletes: map[string]int{},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "admin@afresh.com" || req.Password != "secret-pass" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"message": "Invalid credentials",
				"errors":  []map[string]string{{"field": "password", "message": "Password is incorrect"}},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"session": map[string]string{"access_token": "tok-1"},
			"user":    map[string]string{"id": "u1", "email": "admin@afresh.com"},
		})
	})
	mux.HandleFunc("/api/admin/services", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Unauthorized"})
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		list := make([]model.ServiceItem, 0, len(b.order))
		for _, id := range b.order {
			list = append(list, *b.services[id])
		}
		writeJSON(w, http.StatusOK, list)
	})
	mux.HandleFunc("/api/admin/services/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/admin/services/")
		id, suffix, _ := strings.Cut(rest, "/")
		b.mu.Lock()
		defer b.mu.Unlock()
		item, ok := b.services[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Service not found"})
			return
		}
		switch {
		case suffix == "visibility" && r.Method == http.MethodPatch:
			var body struct {
				Visible bool `json:"visible"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			item.Status = model.StatusFromVisible(body.Visible)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Visibility updated", "service": item})
		case suffix == "" && r.Method == http.MethodDelete:
			b.deletes[id]++
			delete(b.services, id)
			for i, o := range b.order {
				if o == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Service deleted"})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/bookings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{{
			"id": "b1", "full_name": "Ada Obi", "email": "ada@example.com",
			"scheduled_at": "2026-03-02T09:30:00Z", "status": "pending",
		}})
	})
	mux.HandleFunc("/api/teams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []interface{}{})
	})
	mux.HandleFunc("/api/contact", func(w http.ResponseWriter, r *http.Request) {
		var req model.ContactRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.contacts = append(b.contacts, req)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})
	return mux
}

type site struct {
	server  *httptest.Server
	backend *backend
	client  *http.Client
}

func newSite(t *testing.T) *site {
	t.Helper()
	be := newBackend()
	api := httptest.NewServer(be.handler())
	t.Cleanup(api.Close)

	m := metrics.New("test")
	store, err := session.NewStore(session.NewMemoryBackend(time.Minute), session.Config{
		Secret:     "router-test-secret",
		TabTTL:     time.Hour,
		DurableTTL: 24 * time.Hour,
	}, m)
	require.NoError(t, err)

	client, err := gateway.New(gateway.Config{BaseURL: api.URL, Timeout: 5 * time.Second}, m)
	require.NoError(t, err)

	mailer := email.NewService(email.NewSender(email.Config{}))
	fixtures, err := content.Load("")
	require.NoError(t, err)
	contentSvc := content.NewService(fixtures, client, time.Minute)

	renderer, err := web.NewRenderer(nil)
	require.NoError(t, err)
	base := handler.NewBase(fixtures.Company, time.UTC)
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: rate.Inf})

	r, err := NewRouter(Config{Mode: "test"}, renderer, store, m, Handlers{
		Public: []Handler{
			public.NewHandler(base, contentSvc, client),
			auth.NewHandler(base, authService.NewService(client, store), limiter),
		},
		Admin: []Handler{
			overview.NewHandler(base, contentSvc),
			catalog.NewHandler(base, catalogService.NewService(client)),
			booking.NewHandler(base, bookingService.NewService(client, mailer, time.UTC), mailer),
			contact.NewHandler(base, contentSvc, mailer),
			settings.NewHandler(base, contentSvc),
		},
		Ops: []Handler{
			health.NewHandler(store.Backend()),
			prometheus.New(m),
		},
	})
	require.NoError(t, err)
	r.Setup()

	srv := httptest.NewServer(r.Engine())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &site{
		server:  srv,
		backend: be,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (s *site) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.Get(s.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (s *site) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.PostForm(s.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (s *site) login(t *testing.T, remember bool) *http.Response {
	t.Helper()
	form := url.Values{"email": {"admin@afresh.com"}, "password": {"secret-pass"}}
	if remember {
		form.Set("rememberMe", "true")
	}
	resp, _ := s.post(t, "/login", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAdminRedirectsToLoginWithoutSession(t *testing.T) {
	s := newSite(t)

	for _, path := range []string{"/admin", "/admin/services", "/admin/bookings"} {
		resp, _ := s.get(t, path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestLoginFailureShowsFieldErrors(t *testing.T) {
	s := newSite(t)

	resp, body := s.post(t, "/login", url.Values{"email": {"admin@afresh.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid credentials")
	assert.Contains(t, body, "Password is incorrect")
	assert.Contains(t, body, `value="admin@afresh.com"`)
	assert.NotContains(t, body, `value="wrong"`)

	resp, _ = s.get(t, "/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestLoginWithRememberUsesDurableCookie(t *testing.T) {
	s := newSite(t)

	resp := s.login(t, true)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
	durable := cookieNamed(resp, "afresh_durable")
	require.NotNil(t, durable)
	assert.Greater(t, durable.MaxAge, 0)
	assert.True(t, durable.HttpOnly)

	resp, body := s.get(t, "/admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "admin@afresh.com")
	assert.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))
}

func TestLoginWithoutRememberUsesTabCookie(t *testing.T) {
	s := newSite(t)

	resp := s.login(t, false)
	tab := cookieNamed(resp, "afresh_tab")
	require.NotNil(t, tab)
	assert.Equal(t, 0, tab.MaxAge)

	resp, _ = s.get(t, "/admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newSite(t)
	s.login(t, true)

	resp, _ := s.post(t, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = s.get(t, "/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestToggleTwiceRestoresStatus(t *testing.T) {
	s := newSite(t)
	s.login(t, false)

	resp, body := s.post(t, "/admin/services/s1/visibility", url.Values{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Visibility updated")
	assert.Contains(t, body, "Turn on service")

	resp, _ = s.post(t, "/admin/services/s1/visibility", url.Values{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	assert.Equal(t, model.ServiceActive, s.backend.services["s1"].Status)
}

func TestToggleUnknownServiceIsNotFound(t *testing.T) {
	s := newSite(t)
	s.login(t, false)

	resp, _ := s.post(t, "/admin/services/missing/visibility", url.Values{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteRequiresConfirmationAndRunsOnce(t *testing.T) {
	s := newSite(t)
	s.login(t, false)

	resp, _ := s.post(t, "/admin/services/s2/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/services?delete=s2", resp.Header.Get("Location"))

	resp, body := s.get(t, "/admin/services?delete=s2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="confirm"`)

	resp, body = s.post(t, "/admin/services/s2/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Service deleted")
	assert.NotContains(t, body, "Cyber Security")

	resp, _ = s.post(t, "/admin/services/s2/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	assert.Equal(t, 1, s.backend.deletes["s2"])
}

func TestDeleteConfirmationEscapesID(t *testing.T) {
	s := newSite(t)
	s.login(t, false)

	resp, _ := s.post(t, "/admin/services/x%26new%3D1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/services?delete=x%26new%3D1", resp.Header.Get("Location"))
}

func TestBookingsPage(t *testing.T) {
	s := newSite(t)
	s.login(t, false)

	resp, body := s.get(t, "/admin/bookings")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Ada Obi")

	resp, _ = s.get(t, "/admin/bookings?view=7")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContactForm(t *testing.T) {
	s := newSite(t)

	resp, body := s.post(t, "/contact", url.Values{"name": {"Ada"}, "email": {"not-an-email"}, "message": {"Hi"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Failed to send message.")

	resp, body = s.post(t, "/contact", url.Values{"name": {" Ada "}, "email": {"ada@example.com"}, "message": {"Hello there"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Message sent successfully.")
	assert.NotContains(t, body, "Hello there")

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	require.Len(t, s.backend.contacts, 1)
	assert.Equal(t, "Ada", s.backend.contacts[0].Name)
}

func TestPublicPages(t *testing.T) {
	s := newSite(t)

	resp, _ := s.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	resp, body := s.get(t, "/no-such-page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")

	resp, _ = s.get(t, "/static/site.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=86400", resp.Header.Get("Cache-Control"))
}

func TestOpsEndpoints(t *testing.T) {
	s := newSite(t)

	resp, _ := s.get(t, "/healthz/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.get(t, "/")
	resp, body := s.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "test_http_requests_total")
}

func TestSettingsAreValidatedButNotStored(t *testing.T) {
	s := newSite(t)
	s.login(t, false)

	resp, _ := s.get(t, "/admin/settings?tab=security")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.post(t, "/admin/settings", url.Values{
		"tab":             {"security"},
		"currentPassword": {"old-password"},
		"newPassword":     {"new-password"},
		"confirmPassword": {"different"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please fix the highlighted fields")

	resp, body = s.post(t, "/admin/settings", url.Values{
		"tab":             {"security"},
		"currentPassword": {"old-password"},
		"newPassword":     {"new-password"},
		"confirmPassword": {"new-password"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, settings.MsgNotStored)
}

func TestContactReplyWithoutMailServer(t *testing.T) {
	s := newSite(t)
	s.login(t, false)

	resp, body := s.get(t, "/admin/contacts?view=0&reply=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alice@example.com")

	resp, body = s.post(t, "/admin/contacts/0/reply", url.Values{
		"to":      {"alice@example.com"},
		"subject": {"Re: Services Information"},
		"message": {"Thanks for reaching out."},
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "Email is not configured on this server.")

	resp, _ = s.post(t, "/admin/contacts/99/reply", url.Values{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
