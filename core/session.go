package core

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "cardgate_session"

const (
	sessionKeyUser       = "user"
	sessionKeyLoggedInAt = "logged_in_at"
)

// SessionManager creates, reads and destroys the server-side session bound
// to the client cookie.
type SessionManager struct {
	cfg     Config
	store   *ServerStore
	metrics *AuthMetrics
}

func NewSessionManager(cfg Config, store *ServerStore, metrics *AuthMetrics) *SessionManager {
	return &SessionManager{cfg: cfg, store: store, metrics: metrics}
}

// Store exposes the underlying gorilla store.
func (m *SessionManager) Store() *ServerStore {
	return m.store
}

func (m *SessionManager) session(c *gin.Context) (*sessions.Session, error) {
	return m.store.Get(c.Request, sessionName)
}

// Start binds user to a brand new session token. Any session the client
// already had is revoked first, so a pre-login token never gains privileges.
func (m *SessionManager) Start(c *gin.Context, user User) error {
	sess, err := m.session(c)
	if err != nil {
		return err
	}
	if err := m.store.Revoke(c.Request.Context(), sess.ID); err != nil {
		return err
	}
	sess.ID = ""
	sess.IsNew = true
	sess.Values = map[interface{}]interface{}{
		sessionKeyUser:       user,
		sessionKeyLoggedInAt: time.Now().Unix(),
	}
	applySessionOptions(m.cfg, sess)
	if err := sess.Save(c.Request, c.Writer); err != nil {
		return err
	}
	m.metrics.recordSession("created")
	return nil
}

// CurrentUser returns the user bound to the request's session. ok is false
// for anonymous clients; err is set only when the backend failed.
func (m *SessionManager) CurrentUser(c *gin.Context) (User, bool, error) {
	sess, err := m.session(c)
	if err != nil {
		return User{}, false, err
	}
	u, ok := sess.Values[sessionKeyUser].(User)
	if !ok || strings.TrimSpace(u.Username) == "" {
		return User{}, false, nil
	}
	return u, true, nil
}

// Destroy removes the session and expires the cookie. Destroying an absent
// session is not an error.
func (m *SessionManager) Destroy(c *gin.Context) error {
	sess, err := m.session(c)
	if err != nil {
		return err
	}
	existed := !sess.IsNew
	sess.Values = map[interface{}]interface{}{}
	applySessionOptions(m.cfg, sess)
	sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
	if err := sess.Save(c.Request, c.Writer); err != nil {
		return err
	}
	if existed {
		m.metrics.recordSession("destroyed")
	}
	return nil
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = cfg.SessionMaxAge
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
