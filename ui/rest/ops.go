package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sharebite/sharebite-bot/pkg/cache"
	"github.com/sharebite/sharebite-bot/pkg/circuitbreaker"
	"github.com/sharebite/sharebite-bot/pkg/utils"
)

// Ops exposes read-only runtime internals for monitoring. Everything here is
// per-instance state.
type Ops struct {
	CacheStats func() cache.Stats
	Breaker    *circuitbreaker.Breaker
	Version    string
}

func InitRestOps(app fiber.Router, cacheStats func() cache.Stats, breaker *circuitbreaker.Breaker, version string) Ops {
	rest := Ops{CacheStats: cacheStats, Breaker: breaker, Version: version}
	app.Get("/health", rest.Health)
	app.Get("/ops/cache", rest.Cache)
	app.Get("/ops/circuit", rest.Circuit)
	return rest
}

func (handler *Ops) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": handler.Version,
	})
}

func (handler *Ops) Cache(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache stats",
		Results: handler.CacheStats(),
	})
}

func (handler *Ops) Circuit(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Circuit breaker snapshot",
		Results: handler.Breaker.Snapshot(),
	})
}
