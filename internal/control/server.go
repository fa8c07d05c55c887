package control

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rssdigest/domain"
)

var ErrAlreadyRunning = errors.New("already running")

// TryListen tries to bind the control address. If it's already in use, we assume an instance is running.
func TryListen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	return ln, nil
}

type Scheduler interface {
	SetInterval(d time.Duration) error
	CurrentInterval() time.Duration
	NextRun() time.Time
}

type Enricher interface {
	Resize(n int) error
	Concurrency() int
}

type Runs interface {
	LastRun() (domain.RunReport, bool)
}

// Status is the body of GET /status.
type Status struct {
	Interval    string            `json:"interval"`
	NextRun     *time.Time        `json:"nextRun,omitempty"`
	Concurrency int               `json:"concurrency"`
	LastRun     *domain.RunReport `json:"lastRun,omitempty"`
}

type intervalRequest struct {
	Duration string `json:"duration"`
}

type concurrencyRequest struct {
	Concurrency int `json:"concurrency"`
}

// NewServer builds the control plane served by the watch command.
func NewServer(sched Scheduler, enricher Enricher, runs Runs, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	h := &handler{sched: sched, enricher: enricher, runs: runs}
	e.POST("/set-interval", h.setInterval)
	e.POST("/set-concurrency", h.setConcurrency)
	e.GET("/status", h.status)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return e
}

type handler struct {
	sched    Scheduler
	enricher Enricher
	runs     Runs
}

func (h *handler) setInterval(c echo.Context) error {
	var req intervalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "bad request")
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid duration: %v", err))
	}
	old := h.sched.CurrentInterval()
	if err := h.sched.SetInterval(d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "old": old.String(), "new": d.String()})
}

func (h *handler) setConcurrency(c echo.Context) error {
	var req concurrencyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "bad request")
	}
	old := h.enricher.Concurrency()
	if err := h.enricher.Resize(req.Concurrency); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "old": old, "new": req.Concurrency})
}

func (h *handler) status(c echo.Context) error {
	st := Status{
		Interval:    h.sched.CurrentInterval().String(),
		Concurrency: h.enricher.Concurrency(),
	}
	if next := h.sched.NextRun(); !next.IsZero() {
		st.NextRun = &next
	}
	if report, ok := h.runs.LastRun(); ok {
		st.LastRun = &report
	}
	return c.JSON(http.StatusOK, st)
}
