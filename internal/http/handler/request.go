package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/service"
)

var errInvalidBody = &service.Error{Kind: service.KindInvalid, Code: "INVALID_BODY", Message: "request body must be valid JSON"}

// parseBody decodes the JSON body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// parsePage reads ?page= (0-based) and ?size=. Range clamping is left to the service.
func parsePage(c *fiber.Ctx) (service.Page, error) {
	var p service.Page
	var err error
	if p.Page, err = queryInt(c, "page", 0); err != nil {
		return p, &service.Error{Kind: service.KindInvalid, Code: "INVALID_PAGE", Message: "invalid page"}
	}
	if p.Size, err = queryInt(c, "size", 10); err != nil {
		return p, &service.Error{Kind: service.KindInvalid, Code: "INVALID_SIZE", Message: "invalid size"}
	}
	return p, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func queryBool(c *fiber.Ctx, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

// queryList accepts both repeated keys (?status=A&status=B) and comma lists (?status=A,B).
func queryList(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, v := range strings.Split(string(raw), ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func idParam(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, &service.Error{Kind: service.KindInvalid, Code: "INVALID_ID", Message: "invalid id format"}
	}
	return id, nil
}
