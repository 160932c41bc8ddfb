package rest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// NotFound is the catch-all for unmatched routes. It panics with the typed
// error so the recovery middleware renders the standard envelope.
func NotFound(c *fiber.Ctx) error {
	panic(pkgError.NotFoundError(fmt.Sprintf("no handler for %s %s", c.Method(), c.Path())))
}
