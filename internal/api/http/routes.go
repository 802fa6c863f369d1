package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/weather"
)

var validate = validator.New()

// Deps are the read-only collaborators of the status API.
type Deps struct {
	Store    ledger.Store
	Location weather.Location
	Periods  weather.PeriodSchedule
	Clock    clockwork.Clock
	// Metrics serves /metrics; nil leaves the route out.
	Metrics http.Handler
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-briefing",
			"location": d.Location.Name,
			"time":     d.Clock.Now().UTC(),
		})
	})

	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/ledger", func(c *fiber.Ctx) error {
		led, err := openLedger(c, d.Store)
		if err != nil {
			return err
		}
		return c.JSON(led.Record())
	})

	v1.Get("/ledger/status", func(c *fiber.Ctx) error {
		var req statusQuery
		if err := req.bind(c, d.Clock.Now()); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		local := req.At
		if d.Location.Timezone != nil {
			local = local.In(d.Location.Timezone)
		}
		period := weather.Period(req.Period)
		if period == weather.PeriodNone {
			period = d.Periods.At(local)
		}

		resp := fiber.Map{
			"at":           local,
			"period":       period,
			"already_sent": false,
		}
		if period == weather.PeriodNone {
			return c.JSON(resp)
		}

		led, err := openLedger(c, d.Store)
		if err != nil {
			return err
		}
		resp["key"] = ledger.Key(local, period)
		resp["already_sent"] = led.AlreadySent(local, period)
		return c.JSON(resp)
	})
}

func openLedger(c *fiber.Ctx, store ledger.Store) (*ledger.Ledger, error) {
	led, err := ledger.Open(c.UserContext(), store, 0)
	if err != nil {
		if errors.Is(err, ledger.ErrCorrupt) {
			return nil, fiber.NewError(fiber.StatusConflict, "ledger record is corrupt")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read ledger")
	}
	return led, nil
}

// statusQuery holds query parameters for the ledger status endpoint.
// Both are optional: At defaults to now and Period to the period of At.
type statusQuery struct {
	At     time.Time `validate:"required"`
	Period string    `validate:"omitempty,oneof=morning midday evening"`
}

func (q *statusQuery) bind(c *fiber.Ctx, now time.Time) error {
	q.At = now
	if s := c.Query("at"); s != "" {
		at, err := parseTime(s)
		if err != nil {
			return err
		}
		q.At = at
	}
	q.Period = c.Query("period")
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
