package middleware

import "github.com/gofiber/fiber/v2"

// UserTokenHeader carries the bearer token issued at user registration.
const UserTokenHeader = "token"

// UserToken returns the raw user token from the request, or "".
func UserToken(c *fiber.Ctx) string {
	return c.Get(UserTokenHeader)
}
