package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) initSelectionRoutes() {
	c.Group.GET("/selection", c.GetSelection)
	c.Group.PUT("/experiments/:name/selection", c.SetSelection)
	c.Group.PUT("/experiments/:name/selection/stride", c.SetSelectionStride)
	c.Group.DELETE("/experiments/:name/selection", c.EmptySelection)
	c.Group.PUT("/experiments/:name/cycles/:index/label", c.SetCycleLabel)
	c.Group.DELETE("/experiments/:name/labels", c.ResetCycleLabels)
}

// selectedCycle is one visible (cycle, label) pair of the stacked display.
type selectedCycle struct {
	CycleIndex int    `json:"cycle_index"`
	Label      string `json:"label"`
}

// GetSelection enumerates the visible (experiment, cycle) pairs in display
// order with their effective labels.
func (c *Controller) GetSelection(ctx echo.Context) error {
	key := c.revisionKey("selection")
	if cached, found := c.seriesCache.Get(key); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	out := make(map[string][]selectedCycle)
	for _, name := range c.Session.ExperimentNames() {
		cycles := c.Session.SelectedCycles(name)
		entry := make([]selectedCycle, 0, len(cycles))
		for _, i := range cycles {
			entry = append(entry, selectedCycle{
				CycleIndex: i,
				Label:      c.Session.CycleLabel(name, i),
			})
		}
		out[name] = entry
	}
	c.seriesCache.SetDefault(key, out)
	return ctx.JSON(http.StatusOK, out)
}

type selectionPayload struct {
	Cycles []int `json:"cycles"`
}

// SetSelection replaces an experiment's visible cycle sequence with an
// explicit list (manual mode).
func (c *Controller) SetSelection(ctx echo.Context) error {
	var payload selectionPayload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}
	if err := c.Session.SelectCycles(ctx.Param("name"), payload.Cycles); err != nil {
		return c.fail(ctx, err, "failed to set selection")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type stridePayload struct {
	Start  int `json:"start"`
	Stop   int `json:"stop"`
	Stride int `json:"stride"`
}

// SetSelectionStride replaces an experiment's visible set with a
// stride-generated sequence.
func (c *Controller) SetSelectionStride(ctx echo.Context) error {
	var payload stridePayload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}
	if err := c.Session.SelectStride(ctx.Param("name"), payload.Start, payload.Stop, payload.Stride); err != nil {
		return c.fail(ctx, err, "failed to set stride selection")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// EmptySelection clears an experiment's visible set but keeps its label
// overrides.
func (c *Controller) EmptySelection(ctx echo.Context) error {
	if err := c.Session.EmptySelection(ctx.Param("name")); err != nil {
		return c.fail(ctx, err, "failed to empty selection")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type labelPayload struct {
	Label string `json:"label"`
}

// SetCycleLabel stores a label override for one (experiment, cycle) pair.
func (c *Controller) SetCycleLabel(ctx echo.Context) error {
	index, err := pathInt(ctx, "index")
	if err != nil {
		return c.HandleError(ctx, err, "invalid cycle index", http.StatusBadRequest)
	}

	var payload labelPayload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}
	if err := c.Session.SetCycleLabel(ctx.Param("name"), index, payload.Label); err != nil {
		return c.fail(ctx, err, "failed to set label")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ResetCycleLabels drops all label overrides of an experiment.
func (c *Controller) ResetCycleLabels(ctx echo.Context) error {
	if err := c.Session.ResetCycleLabels(ctx.Param("name")); err != nil {
		return c.fail(ctx, err, "failed to reset labels")
	}
	return ctx.NoContent(http.StatusNoContent)
}
