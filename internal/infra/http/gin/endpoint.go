package ginserver

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/queries"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/fault"
)

const maxPageSize = 200

var errInvalidQuery = fault.Validation("invalid_query", "query parameter is malformed")

// Endpoint carries what every HTTP handler needs to reach the application buses.
type Endpoint struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (e Endpoint) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e Endpoint) fail(c *gin.Context, err error) {
	writeError(c, e.Logger, err)
}

func pathID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errInvalidQuery.Withf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func pagination(c *gin.Context) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(c, "offset"); err != nil {
		return 0, 0, err
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}

func queryDay(c *gin.Context, key string) (daterange.Day, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return daterange.Day{}, nil
	}
	d, err := daterange.ParseDay(raw)
	if err != nil {
		return daterange.Day{}, errInvalidQuery.Withf("%s must be formatted as YYYY-MM-DD", key)
	}
	return d, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errInvalidQuery.Withf("%s must be true or false", key)
	}
	return &v, nil
}
