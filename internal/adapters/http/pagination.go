package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata. Count
// is the number of items in this page; results stream from the
// database, so no total is reported.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Count  int `json:"count"`
}

// pageParams reads offset/limit query parameters and clamps them to
// the public window (limit 1 to 50, default 10) so the pagination
// metadata and Link headers reflect the values actually applied. The
// service layer clamps again with the same rules.
func pageParams(c *fiber.Ctx) (offset, limit int, err error) {
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", 0)
	if offset < 0 {
		return 0, 0, fmt.Errorf("offset must not be negative")
	}
	if limit < 0 {
		return 0, 0, fmt.Errorf("limit must not be negative")
	}
	if limit == 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return offset, limit, nil
}

// SetLinkHeaders adds RFC 8288 Link headers. With no total count
// available, a "next" link is offered whenever the page came back full.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	var links []string

	links = append(links, fmt.Sprintf(`<%s?offset=0&limit=%d>; rel="first"`, base, p.Limit))

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="prev"`, base, prev, p.Limit))
	}

	if p.Count == p.Limit {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="next"`, base, p.Offset+p.Limit, p.Limit))
	}

	c.Set("Link", strings.Join(links, ", "))
}
