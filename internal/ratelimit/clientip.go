package ratelimit

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientIP resolves the requesting client address. Precedence: first
// x-forwarded-for entry, x-real-ip, cf-connecting-ip, then the
// transport-level remote address.
func ClientIP(c *fiber.Ctx) string {
	if fwd := c.Get("x-forwarded-for"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := c.Get("x-real-ip"); ip != "" {
		return ip
	}
	if ip := c.Get("cf-connecting-ip"); ip != "" {
		return ip
	}
	return c.IP()
}
