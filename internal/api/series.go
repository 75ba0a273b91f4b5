package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
)

func (c *Controller) initSeriesRoutes() {
	c.Group.GET("/experiments/:name/cycles/:index/series", c.GetCycleSeries)
	c.Group.GET("/metrics", c.ListMetrics)
}

// ListMetrics returns the closed set of plottable metrics.
func (c *Controller) ListMetrics(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, cycling.Metrics)
}

// seriesResponse is one plottable trace: its display label carrying the
// effective unit, and the numeric values.
type seriesResponse struct {
	Experiment string    `json:"experiment"`
	CycleIndex int       `json:"cycle_index"`
	Half       string    `json:"half"`
	Metric     string    `json:"metric"`
	Label      string    `json:"label"`
	Values     []float64 `json:"values"`
}

// GetCycleSeries returns one metric series of one halfcycle, scaled by the
// experiment's normalization factors. Query parameters: half (charge or
// discharge) and metric (one of /metrics).
func (c *Controller) GetCycleSeries(ctx echo.Context) error {
	name := ctx.Param("name")
	index, err := pathInt(ctx, "index")
	if err != nil {
		return c.HandleError(ctx, err, "invalid cycle index", http.StatusBadRequest)
	}

	half := cycling.HalfcycleType(ctx.QueryParam("half"))
	if !half.Valid() {
		return c.HandleError(ctx,
			errors.Newf("half must be %q or %q", cycling.Charge, cycling.Discharge).
				Category(errors.CategoryValidation).Build(),
			"invalid half", http.StatusBadRequest)
	}
	metric := cycling.Metric(ctx.QueryParam("metric"))
	if !metric.Valid() {
		return c.HandleError(ctx,
			errors.Newf("unknown metric %q", metric).
				Category(errors.CategoryValidation).Build(),
			"invalid metric", http.StatusBadRequest)
	}

	key := c.revisionKey("series", name, index, half, metric)
	if cached, found := c.seriesCache.Get(key); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	e, err := c.Session.Experiment(name)
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}
	cyc := e.CycleByIndex(index)
	if cyc == nil {
		return c.fail(ctx,
			errors.Newf("experiment %q has no assembled cycle %d", name, index).
				Category(errors.CategoryNotFound).Build(),
			"cycle not found")
	}
	rec := cyc.Half(half)
	if rec == nil {
		return c.fail(ctx,
			errors.Newf("cycle %d of %q has no %s half", index, name, half).
				Category(errors.CategoryNotFound).Build(),
			"halfcycle not found")
	}

	label, values, err := cycling.MetricSeries(rec, metric, e.Normalization())
	if err != nil {
		return c.fail(ctx, err, "failed to compute series")
	}

	resp := seriesResponse{
		Experiment: name,
		CycleIndex: index,
		Half:       string(half),
		Metric:     string(metric),
		Label:      label,
		Values:     values,
	}
	c.seriesCache.SetDefault(key, resp)
	return ctx.JSON(http.StatusOK, resp)
}
