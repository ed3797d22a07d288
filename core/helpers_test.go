package core

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSessionKey = "0123456789abcdef0123456789abcdef"

func testConfig() Config {
	return Config{
		Port:           "0",
		GinMode:        gin.TestMode,
		SessionKey:     testSessionKey,
		SessionBackend: SessionBackendMemory,
		SessionMaxAge:  3600,
		CookieSameSite: "Lax",
		BcryptCost:     bcrypt.MinCost,
		MetricsEnabled: true,
	}
}

// testEnv wires the whole gateway on in-memory collaborators.
type testEnv struct {
	cfg      Config
	router   *gin.Engine
	users    *MemoryUserRepository
	backend  SessionBackend
	store    *ServerStore
	sessions *SessionManager
	hasher   *BcryptHasher
	metrics  *AuthMetrics
	registry *prometheus.Registry
}

type envOption func(*testEnv)

func withBackend(b SessionBackend) envOption {
	return func(e *testEnv) { e.backend = b }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	e := &testEnv{
		cfg:      testConfig(),
		users:    NewMemoryUserRepository(),
		registry: prometheus.NewRegistry(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.backend == nil {
		mem := NewMemorySessionBackend(time.Minute)
		t.Cleanup(func() { _ = mem.Close() })
		e.backend = mem
	}
	e.metrics = NewAuthMetrics(e.registry)
	e.hasher = NewBcryptHasher(e.cfg.BcryptCost, e.metrics)
	e.store = NewServerStore(e.backend, e.cfg.SessionMaxAge, []byte(e.cfg.SessionKey))
	e.sessions = NewSessionManager(e.cfg, e.store, e.metrics)

	auth, err := NewRepositoryAuthService(e.users, e.hasher, e.metrics)
	require.NoError(t, err)
	e.router, err = NewRouter(e.cfg, auth, e.sessions, e.users, e.registry)
	require.NoError(t, err)
	return e
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(path, username, password string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// sessionCookie returns the session cookie set by rec, or nil.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			return c
		}
	}
	return nil
}
