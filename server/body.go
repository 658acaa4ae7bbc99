package server

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

// parseBody strictly decodes the JSON request body into dest. Unknown fields
// are rejected at the boundary rather than silently dropped.
func parseBody(c *fiber.Ctx, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
