package httpapi

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-tracker/internal/forecast"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/view"
	"github.com/i474232898/weather-tracker/internal/weather"
)

var validate = validator.New()

// Session is the command side of the session manager.
type Session interface {
	AddAndRefresh(ctx context.Context, loc weather.Location) (bool, error)
	RefreshAll(ctx context.Context) error
	Remove(ctx context.Context, index int) error
	Reorder(ctx context.Context, a, b int) error
	Search(ctx context.Context, query string) ([]weather.SearchResult, error)
	Save()
}

// Handler serves commands against the session and reads results back from
// the view state the session publishes into.
type Handler struct {
	session    Session
	state      *view.State
	jobTimeout time.Duration

	jobs sync.WaitGroup
}

// NewHandler creates a Handler. jobTimeout bounds each background add or refresh.
func NewHandler(s Session, state *view.State, jobTimeout time.Duration) *Handler {
	return &Handler{session: s, state: state, jobTimeout: jobTimeout}
}

// Wait blocks until background refresh jobs started by requests are done.
func (h *Handler) Wait() {
	h.jobs.Wait()
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", h.listCities)
	v1.Post("/cities", h.addCity)
	v1.Post("/cities/refresh", h.refreshAll)
	v1.Post("/cities/reorder", h.reorderCities)
	v1.Delete("/cities/:index", h.removeCity)
	v1.Get("/cities/:index/forecast-graph", h.forecastGraph)
	v1.Get("/search", h.search)
	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(h.state.Status())
	})
}

func (h *Handler) listCities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"cities": h.state.Cities(),
		"status": h.state.Status(),
	})
}

type addCityRequest struct {
	Lat  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon  *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Name string   `json:"name" validate:"required,max=200"`
}

func (h *Handler) addCity(c *fiber.Ctx) error {
	var req addCityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	loc := weather.Location{Lat: *req.Lat, Lon: *req.Lon, Name: req.Name}
	h.background("add", func(ctx context.Context) error {
		added, err := h.session.AddAndRefresh(ctx, loc)
		if err == nil && added {
			h.session.Save()
		}
		return err
	})

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted": true,
		"location": loc,
	})
}

func (h *Handler) refreshAll(c *fiber.Ctx) error {
	h.background("refresh", func(ctx context.Context) error {
		if err := h.session.RefreshAll(ctx); err != nil {
			return err
		}
		h.session.Save()
		return nil
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
}

type reorderRequest struct {
	From *int `json:"from" validate:"required,gte=0"`
	To   *int `json:"to" validate:"required,gte=0"`
}

func (h *Handler) reorderCities(c *fiber.Ctx) error {
	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.session.Reorder(c.UserContext(), *req.From, *req.To); err != nil {
		return commandError(err)
	}
	h.session.Save()
	return c.JSON(fiber.Map{"cities": h.state.Cities()})
}

func (h *Handler) removeCity(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
	}

	if err := h.session.Remove(c.UserContext(), index); err != nil {
		return commandError(err)
	}
	h.session.Save()
	return c.JSON(fiber.Map{"cities": h.state.Cities()})
}

func (h *Handler) search(c *fiber.Ctx) error {
	results, err := h.session.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		if errors.Is(err, weather.ErrProvider) {
			return fiber.NewError(fiber.StatusBadGateway, "location search failed")
		}
		return commandError(err)
	}
	return c.JSON(fiber.Map{"results": results})
}

type graphQuery struct {
	Width  float64 `validate:"gt=0"`
	Height float64 `validate:"gt=0"`
	Days   int     `validate:"gte=0,lte=16"`
}

func (h *Handler) forecastGraph(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
	}
	snap, ok := h.state.Snapshot(index)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, store.ErrIndexOutOfRange.Error())
	}
	samples := view.DayTemperatures(snap)

	q := graphQuery{Days: len(samples)}
	if q.Width, err = parseFloatQuery(c, "width"); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if q.Height, err = parseFloatQuery(c, "height"); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if raw := c.Query("days"); raw != "" {
		if q.Days, err = strconv.Atoi(raw); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
		}
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	path := forecast.Curve(samples, q.Days, q.Width, q.Height)
	return c.JSON(fiber.Map{
		"city_name": snap.Location.Name,
		"days":      q.Days,
		"min_temp":  path.MinTemp,
		"max_temp":  path.MaxTemp,
		"path":      path.String(),
	})
}

func parseFloatQuery(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, errors.New(key + " query parameter is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return v, nil
}

// background runs fn detached from the request so the client gets its
// response immediately. Results reach clients through the view state.
func (h *Handler) background(op string, fn func(ctx context.Context) error) {
	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()

		ctx, cancel := context.WithTimeout(context.Background(), h.jobTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("op", op).Msg("httpapi: background job failed")
		}
	}()
}

func commandError(err error) error {
	switch {
	case errors.Is(err, store.ErrIndexOutOfRange):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusServiceUnavailable, "request cancelled while waiting for the store")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
