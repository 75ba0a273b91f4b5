package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/errors"
)

func (c *Controller) initComparisonRoutes() {
	c.Group.GET("/comparison", c.GetComparison)
	c.Group.POST("/comparison", c.AddComparison)
	c.Group.POST("/comparison/stride", c.AddComparisonStride)
	c.Group.PATCH("/comparison/:index", c.EditComparison)
	c.Group.DELETE("/comparison/:index", c.RemoveComparison)
	c.Group.DELETE("/comparison/experiment/:name", c.RemoveComparisonsFor)
}

func pathInt(ctx echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errors.Newf("parameter %q must be an integer", name).
			Category(errors.CategoryValidation).
			Build()
	}
	return v, nil
}

// comparisonEntry is one buffered series with its render-time color
// resolved.
type comparisonEntry struct {
	Index          int    `json:"index"`
	Label          string `json:"label"`
	ExperimentName string `json:"experiment"`
	CycleIndex     int    `json:"cycle_index"`
	Color          string `json:"color"`
	ColorFromBase  bool   `json:"color_from_base"`
}

// GetComparison returns the comparison buffer in display order, with the
// effective color of each series recomputed from its current rank.
func (c *Controller) GetComparison(ctx echo.Context) error {
	key := c.revisionKey("comparison")
	if cached, found := c.seriesCache.Get(key); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	series := c.Session.ComparisonSeries()
	out := make([]comparisonEntry, 0, len(series))
	for i, s := range series {
		col, err := c.Session.ComparisonColor(i)
		if err != nil {
			return c.fail(ctx, err, "failed to resolve series color")
		}
		out = append(out, comparisonEntry{
			Index:          i,
			Label:          s.Label,
			ExperimentName: s.ExperimentName,
			CycleIndex:     s.CycleIndex,
			Color:          col.Hex(),
			ColorFromBase:  s.ColorFromBase,
		})
	}
	c.seriesCache.SetDefault(key, out)
	return ctx.JSON(http.StatusOK, out)
}

type comparisonAddPayload struct {
	Experiment string `json:"experiment"`
	CycleIndex int    `json:"cycle_index"`
	Label      string `json:"label"`
}

// AddComparison appends one manual comparison pick.
func (c *Controller) AddComparison(ctx echo.Context) error {
	var payload comparisonAddPayload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}
	if err := c.Session.AddComparison(payload.Experiment, payload.CycleIndex, payload.Label); err != nil {
		return c.fail(ctx, err, "failed to add comparison series")
	}
	return ctx.NoContent(http.StatusCreated)
}

type comparisonStridePayload struct {
	Experiment  string `json:"experiment"`
	LabelPrefix string `json:"label_prefix"`
	Start       int    `json:"start"`
	Stop        int    `json:"stop"`
	Stride      int    `json:"stride"`
}

// AddComparisonStride appends stride-generated series, skipping pairs
// already buffered.
func (c *Controller) AddComparisonStride(ctx echo.Context) error {
	var payload comparisonStridePayload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}
	added, err := c.Session.AddComparisonStride(payload.Experiment, payload.LabelPrefix,
		payload.Start, payload.Stop, payload.Stride)
	if err != nil {
		return c.fail(ctx, err, "failed to add comparison series")
	}
	return ctx.JSON(http.StatusOK, map[string]int{"added": added})
}

// comparisonEdit carries in-place edits of one buffered series. Setting a
// color fixes it and turns base shading off; color_from_base=true switches
// back.
type comparisonEdit struct {
	Label         *string `json:"label"`
	Color         *string `json:"color"`
	ColorFromBase *bool   `json:"color_from_base"`
}

// EditComparison changes one buffered series in place.
func (c *Controller) EditComparison(ctx echo.Context) error {
	index, err := pathInt(ctx, "index")
	if err != nil {
		return c.HandleError(ctx, err, "invalid series index", http.StatusBadRequest)
	}

	var payload comparisonEdit
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}

	if payload.Label != nil {
		if err := c.Session.EditComparisonLabel(index, *payload.Label); err != nil {
			return c.fail(ctx, err, "failed to edit label")
		}
	}
	if payload.Color != nil {
		col, err := colors.FromHex(*payload.Color)
		if err != nil {
			return c.fail(ctx, err, "invalid color")
		}
		if err := c.Session.OverrideComparisonColor(index, col); err != nil {
			return c.fail(ctx, err, "failed to override color")
		}
	} else if payload.ColorFromBase != nil && *payload.ColorFromBase {
		if err := c.Session.UseComparisonBaseColor(index); err != nil {
			return c.fail(ctx, err, "failed to reset color")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RemoveComparison drops one buffered series.
func (c *Controller) RemoveComparison(ctx echo.Context) error {
	index, err := pathInt(ctx, "index")
	if err != nil {
		return c.HandleError(ctx, err, "invalid series index", http.StatusBadRequest)
	}
	if err := c.Session.RemoveComparisonAt(index); err != nil {
		return c.fail(ctx, err, "failed to remove series")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RemoveComparisonsFor drops every buffered series of one experiment.
func (c *Controller) RemoveComparisonsFor(ctx echo.Context) error {
	removed := c.Session.RemoveComparisonsFor(ctx.Param("name"))
	return ctx.JSON(http.StatusOK, map[string]int{"removed": removed})
}
