// server/auth/auth.go
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const Header = "X-Paper-Token"

// Config holds the shared secret. When TokenHash (a bcrypt hash) is set it
// is used instead of Token. With both empty every request is let through.
type Config struct {
	Token     string
	TokenHash string
}

func (cfg Config) Open() bool {
	return cfg.Token == "" && cfg.TokenHash == ""
}

func (cfg Config) Check(token string) bool {
	if cfg.TokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.TokenHash), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) == 1
}

// Middleware accepts the token from the X-Paper-Token header or, for
// clients that cannot set headers such as browser WebSockets, from the
// token query parameter.
func Middleware(cfg Config) fiber.Handler {
	if cfg.Open() {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		token := c.Get(Header)
		if token == "" {
			token = c.Query("token")
		}
		if !cfg.Check(token) {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		return c.Next()
	}
}

// Hash returns the bcrypt hash to put in PAPER_TOKEN_HASH.
func Hash(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
