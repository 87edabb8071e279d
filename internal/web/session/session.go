// Package session reads the already-authenticated principal of a request from the
// session storage shared with the identity service.
package session

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog/log"
)

const (
	// CookieName is the session cookie set by the identity service.
	CookieName = "session"

	// LocalsPrincipal is the fiber.Locals key holding the request's Principal.
	LocalsPrincipal = "principal"
)

// ErrNoSession is returned when the storage holds no data for a session id.
var ErrNoSession = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store //nolint:gochecknoglobals

// Principal is the authenticated identity making a request.
type Principal struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	HomeBranchID string `json:"home_branch_id,omitempty"`
}

// Data represents the session data structure.
type Data struct {
	Principal Principal `json:"principal"`
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Init initializes the session store with the provided storage backend.
// A nil storage selects fiber's in-memory storage.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage:    storage,
		CookieName: CookieName,
	})
}

// sessionID returns the session cookie, else the bearer token of the request.
func sessionID(c *fiber.Ctx) string {
	if id := c.Cookies(CookieName); id != "" {
		return id
	}

	auth := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

// Middleware stores the principal of a valid session in the request locals.
// It never rejects a request; the route guard decides what anonymous requests may reach.
func Middleware(c *fiber.Ctx) error {
	id := sessionID(c)
	if id == "" || Store == nil {
		return c.Next()
	}

	sessData := new(Data)
	if err := sessData.Read(id); err != nil {
		if !errors.Is(err, ErrNoSession) {
			log.Error().Err(err).Msg("failed to read session")
		}

		return c.Next()
	}

	if sessData.Principal.UserID > 0 {
		c.Locals(LocalsPrincipal, sessData.Principal)
	}

	return c.Next()
}

// FromContext returns the principal stored by Middleware.
func FromContext(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(LocalsPrincipal).(Principal)
	if !ok || p.UserID == 0 {
		return Principal{}, false
	}

	return p, true
}
