package core

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	msgInvalidCredentials = "Incorrect username or password."
	msgUsernameTaken      = "That username is already taken."
	msgBadForm            = "Please submit a username and password."
	msgLoggedOut          = "Successfully logged out!"
)

// credentialsForm binds urlencoded and JSON bodies alike.
type credentialsForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// NewRouter constructs the Gin engine with routes wired. gatherer may be nil
// to disable /metrics.
func NewRouter(cfg Config, authService AuthService, sessionManager *SessionManager, users UserRepository, gatherer prometheus.Gatherer) (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)
	r.Use(RequestIDMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := users.Ping(ctx); err != nil {
			log.Printf("[health] user store: %v", err)
			respondError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "user store unavailable")
			return
		}
		if err := sessionManager.Store().Ping(ctx); err != nil {
			log.Printf("[health] session backend: %v", err)
			respondError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "session store unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled && gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})

	r.GET("/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.tmpl", gin.H{})
	})

	r.GET("/register", func(c *gin.Context) {
		c.HTML(http.StatusOK, "register.tmpl", gin.H{})
	})

	r.POST("/login", func(c *gin.Context) {
		var form credentialsForm
		if err := c.ShouldBind(&form); err != nil {
			c.HTML(http.StatusBadRequest, "login.tmpl", gin.H{"message": msgBadForm})
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), form.Username, form.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			log.Printf("[login] request_id=%s failed login for %q", requestID(c), form.Username)
			c.HTML(http.StatusUnauthorized, "login.tmpl", gin.H{
				"message":  msgInvalidCredentials,
				"username": form.Username,
			})
			return
		}
		if err != nil {
			log.Printf("[login] request_id=%s authenticate: %v", requestID(c), err)
			renderServerError(c)
			return
		}

		if err := sessionManager.Start(c, user); err != nil {
			log.Printf("[login] request_id=%s start session: %v", requestID(c), err)
			renderServerError(c)
			return
		}
		log.Printf("[login] request_id=%s user %q logged in", requestID(c), user.Username)
		c.Redirect(http.StatusFound, "/discover")
	})

	r.POST("/register", func(c *gin.Context) {
		var form credentialsForm
		if err := c.ShouldBind(&form); err != nil {
			c.HTML(http.StatusBadRequest, "register.tmpl", gin.H{"message": msgBadForm})
			return
		}

		user, err := authService.Register(c.Request.Context(), form.Username, form.Password)
		var regErr *RegistrationError
		switch {
		case errors.As(err, &regErr):
			c.HTML(http.StatusBadRequest, "register.tmpl", gin.H{
				"message":  regErr.Reason,
				"username": form.Username,
			})
			return
		case errors.Is(err, ErrUsernameTaken):
			c.HTML(http.StatusConflict, "register.tmpl", gin.H{"message": msgUsernameTaken})
			return
		case err != nil:
			log.Printf("[register] request_id=%s register %q: %v", requestID(c), form.Username, err)
			renderServerError(c)
			return
		}
		log.Printf("[register] request_id=%s user %q registered", requestID(c), user.Username)
		c.Redirect(http.StatusFound, "/login")
	})

	// Everything below requires a session.
	protected := r.Group("/", RequireLogin(sessionManager))
	{
		protected.GET("/discover", func(c *gin.Context) {
			c.HTML(http.StatusOK, "discover.tmpl", gin.H{"user": currentUser(c)})
		})

		protected.GET("/logout", func(c *gin.Context) {
			if err := sessionManager.Destroy(c); err != nil {
				log.Printf("[logout] request_id=%s destroy session: %v", requestID(c), err)
				renderServerError(c)
				return
			}
			c.HTML(http.StatusOK, "logout.tmpl", gin.H{"message": msgLoggedOut})
		})
	}

	// Unknown paths are gated too: anonymous clients go to /login.
	r.NoRoute(RequireLogin(sessionManager), func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "error.tmpl", gin.H{"message": "Page not found."})
	})

	return r, nil
}
