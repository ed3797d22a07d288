package core

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

func init() {
	gob.Register(User{})
}

// ServerStore is a gorilla sessions.Store that keeps session values in a
// SessionBackend. The cookie only carries the signed session id.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend    SessionBackend
	serializer securecookie.Serializer
}

// NewServerStore creates a store; keyPairs are passed to
// securecookie.CodecsFromPairs (hash key, optional block key, ...).
func NewServerStore(backend SessionBackend, maxAge int, keyPairs ...[]byte) *ServerStore {
	s := &ServerStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
		},
		backend:    backend,
		serializer: securecookie.GobEncoder{},
	}
	s.MaxAge(maxAge)
	return s
}

// MaxAge sets the cookie lifetime and the codecs' timestamp limit.
func (s *ServerStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get returns the session cached in the request registry, loading it on first use.
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, forged or
// expired cookie yields a fresh anonymous session without error; only
// backend failures are returned.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, nil
	}
	data, err := s.backend.Load(r.Context(), id)
	if errors.Is(err, ErrSessionNotFound) {
		return session, nil
	}
	if err != nil {
		return session, err
	}
	if err := s.serializer.Deserialize(data, &session.Values); err != nil {
		return session, fmt.Errorf("decode session: %w", err)
	}
	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes the cookie. A negative MaxAge deletes
// the backend entry and expires the cookie.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()
	if session.Options.MaxAge < 0 {
		if err := s.Revoke(ctx, session.ID); err != nil {
			return err
		}
		session.ID = ""
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := NewSessionID()
		if err != nil {
			return err
		}
		session.ID = id
	}
	data, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Save(ctx, session.ID, data, s.ttl(session.Options)); err != nil {
		return err
	}
	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Revoke deletes the backend entry for id. Empty ids are ignored.
func (s *ServerStore) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.backend.Delete(ctx, id)
}

// Ping checks the backend.
func (s *ServerStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// ttl is the backend lifetime. Browser-session cookies (MaxAge 0) still get
// the store default so abandoned sessions expire server side.
func (s *ServerStore) ttl(opts *sessions.Options) time.Duration {
	age := opts.MaxAge
	if age == 0 {
		age = s.Options.MaxAge
	}
	return time.Duration(age) * time.Second
}
