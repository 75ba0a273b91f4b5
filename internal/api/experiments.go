package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/experiment"
	"github.com/echemtools/cellcycle-go/internal/ingest"
)

func (c *Controller) initExperimentRoutes() {
	c.Group.GET("/experiments", c.ListExperiments)
	c.Group.POST("/experiments", c.CreateExperiment)
	c.Group.GET("/experiments/:name", c.GetExperiment)
	c.Group.DELETE("/experiments/:name", c.DeleteExperiment)
	c.Group.PATCH("/experiments/:name", c.UpdateExperiment)
	c.Group.POST("/experiments/:name/files", c.AddFiles)
	c.Group.DELETE("/experiments/:name/files/:filename", c.RemoveFile)
	c.Group.GET("/experiments/:name/ordering", c.GetOrdering)
	c.Group.POST("/experiments/:name/ordering/validate", c.ValidateOrdering)
	c.Group.PUT("/experiments/:name/ordering", c.CommitOrdering)
	c.Group.POST("/experiments/:name/merge/:from", c.MergeExperiments)
}

// parseMultipart reads the uploaded files of a multipart request, screens
// them for a single supported instrument family and runs that family's
// parser.
func (c *Controller) parseMultipart(ctx echo.Context) (*ingest.Batch, cycling.MergeFunc, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, nil, errors.Wrap(err).
			Category(errors.CategoryIngestion).
			Context("operation", "read-multipart").
			Build()
	}

	var uploads []ingest.Upload
	var filenames []string
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, errors.Wrap(err).
				Category(errors.CategoryIngestion).
				FileContext(fh.Filename).
				Build()
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, nil, errors.Wrap(err).
				Category(errors.CategoryIngestion).
				FileContext(fh.Filename).
				Build()
		}
		uploads = append(uploads, ingest.Upload{Filename: fh.Filename, Data: data})
		filenames = append(filenames, fh.Filename)
	}

	instrument, err := ingest.ScreenFilenames(filenames)
	if err != nil {
		return nil, nil, err
	}
	parser, ok := c.parsers[instrument]
	if !ok {
		return nil, nil, errors.Newf("no parser registered for instrument %s", instrument).
			Category(errors.CategoryIngestion).
			Build()
	}

	batch, err := parser.Parse(ctx.Request().Context(), uploads)
	if err != nil {
		return nil, nil, err
	}
	return batch, parser.Merge(), nil
}

type experimentSummary struct {
	experiment.Snapshot
	VisibleCycles []int `json:"visiblecycles"`
	// StrideGuess is the stride preselected by the editor UI, derived from
	// the cycle count and the configured divisor.
	StrideGuess int `json:"strideguess"`
}

func (c *Controller) summarize(e *experiment.Experiment) experimentSummary {
	s := experimentSummary{Snapshot: e.Snapshot(), StrideGuess: 1}
	for _, cyc := range e.VisibleCycles() {
		s.VisibleCycles = append(s.VisibleCycles, cyc.Index)
	}
	if div := c.Settings.Plot.StrideGuessDiv; div > 0 && e.CycleCount()/div > 1 {
		s.StrideGuess = e.CycleCount() / div
	}
	return s
}

// ListExperiments returns a summary of every registered experiment.
func (c *Controller) ListExperiments(ctx echo.Context) error {
	key := c.revisionKey("experiments")
	if cached, found := c.seriesCache.Get(key); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	out := make([]experimentSummary, 0)
	for _, name := range c.Session.ExperimentNames() {
		e, err := c.Session.Experiment(name)
		if err != nil {
			return c.fail(ctx, err, "failed to resolve experiment")
		}
		out = append(out, c.summarize(e))
	}
	c.seriesCache.SetDefault(key, out)
	return ctx.JSON(http.StatusOK, out)
}

// CreateExperiment parses the uploaded instrument files into a new
// experiment. The optional "name" form field overrides the default
// experiment_<n> naming.
func (c *Controller) CreateExperiment(ctx echo.Context) error {
	batch, merge, err := c.parseMultipart(ctx)
	if err != nil {
		return c.fail(ctx, err, "upload rejected")
	}

	name, err := c.Session.CreateExperiment(ctx.FormValue("name"), batch, merge)
	if err != nil {
		return c.fail(ctx, err, "failed to create experiment")
	}

	e, err := c.Session.Experiment(name)
	if err != nil {
		return c.fail(ctx, err, "failed to resolve created experiment")
	}
	return ctx.JSON(http.StatusCreated, c.summarize(e))
}

// GetExperiment returns one experiment's summary.
func (c *Controller) GetExperiment(ctx echo.Context) error {
	e, err := c.Session.Experiment(ctx.Param("name"))
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}
	return ctx.JSON(http.StatusOK, c.summarize(e))
}

// DeleteExperiment removes an experiment and all of its view entries.
func (c *Controller) DeleteExperiment(ctx echo.Context) error {
	if err := c.Session.DeleteExperiment(ctx.Param("name")); err != nil {
		return c.fail(ctx, err, "failed to delete experiment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// experimentUpdate carries the editable metadata of an experiment. Pointer
// fields distinguish "leave unchanged" from zero values.
type experimentUpdate struct {
	Name      *string  `json:"name"`
	Volume    *float64 `json:"volume"`
	Area      *float64 `json:"area"`
	BaseColor *string  `json:"basecolor"`
	Clean     *bool    `json:"clean"`
}

// UpdateExperiment applies metadata edits: rename, normalization factors,
// base color, clean flag.
func (c *Controller) UpdateExperiment(ctx echo.Context) error {
	name := ctx.Param("name")

	var upd experimentUpdate
	if err := ctx.Bind(&upd); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}

	if upd.Volume != nil {
		if err := c.Session.SetVolume(name, *upd.Volume); err != nil {
			return c.fail(ctx, err, "failed to set volume")
		}
	}
	if upd.Area != nil {
		if err := c.Session.SetArea(name, *upd.Area); err != nil {
			return c.fail(ctx, err, "failed to set area")
		}
	}
	if upd.BaseColor != nil {
		col, err := colors.FromHex(*upd.BaseColor)
		if err != nil {
			return c.fail(ctx, err, "invalid base color")
		}
		if err := c.Session.SetBaseColor(name, col); err != nil {
			return c.fail(ctx, err, "failed to set base color")
		}
	}
	if upd.Clean != nil {
		if err := c.Session.SetClean(name, *upd.Clean); err != nil {
			return c.fail(ctx, err, "failed to set clean flag")
		}
	}
	if upd.Name != nil {
		if err := c.Session.RenameExperiment(name, *upd.Name); err != nil {
			return c.fail(ctx, err, "failed to rename experiment")
		}
		name = *upd.Name
	}

	e, err := c.Session.Experiment(name)
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}
	return ctx.JSON(http.StatusOK, c.summarize(e))
}

// AddFiles feeds another upload batch into an existing experiment.
func (c *Controller) AddFiles(ctx echo.Context) error {
	name := ctx.Param("name")

	batch, _, err := c.parseMultipart(ctx)
	if err != nil {
		return c.fail(ctx, err, "upload rejected")
	}
	if err := c.Session.AddBatch(name, batch); err != nil {
		return c.fail(ctx, err, "failed to add files")
	}

	e, err := c.Session.Experiment(name)
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}
	return ctx.JSON(http.StatusOK, c.summarize(e))
}

// RemoveFile removes one halfcycle file from an experiment.
func (c *Controller) RemoveFile(ctx echo.Context) error {
	if err := c.Session.RemoveFile(ctx.Param("name"), ctx.Param("filename")); err != nil {
		return c.fail(ctx, err, "failed to remove file")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// orderingPayload is the wire form of an ordering table.
type orderingPayload struct {
	Entries map[string]cycling.OrderingEntry `json:"entries"`
}

// GetOrdering returns the experiment's current ordering table.
func (c *Controller) GetOrdering(ctx echo.Context) error {
	e, err := c.Session.Experiment(ctx.Param("name"))
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}
	return ctx.JSON(http.StatusOK, orderingPayload{Entries: e.Ordering()})
}

// ValidateOrdering dry-runs a draft ordering table against the experiment's
// files without committing it, so an editor can surface failures live.
func (c *Controller) ValidateOrdering(ctx echo.Context) error {
	e, err := c.Session.Experiment(ctx.Param("name"))
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}

	var payload orderingPayload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}

	types := make(map[string]cycling.HalfcycleType, len(payload.Entries))
	for filename := range payload.Entries {
		rec := e.Record(filename)
		if rec == nil {
			return c.fail(ctx, errors.Newf("ordering table references unknown file %q", filename).
				Category(errors.CategoryOrdering).
				Build(), "draft rejected")
		}
		types[filename] = rec.Type
	}

	if _, err := cycling.ValidateOrdering(payload.Entries, types); err != nil {
		return ctx.JSON(http.StatusOK, map[string]any{"valid": false, "reason": err.Error()})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"valid": true})
}

// CommitOrdering atomically replaces the experiment's ordering table.
func (c *Controller) CommitOrdering(ctx echo.Context) error {
	name := ctx.Param("name")

	var payload orderingPayload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
	}
	if err := c.Session.SetOrdering(name, payload.Entries); err != nil {
		return c.fail(ctx, err, "ordering rejected")
	}

	e, err := c.Session.Experiment(name)
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}
	return ctx.JSON(http.StatusOK, c.summarize(e))
}

// MergeExperiments merges :from into :name and deletes the source.
func (c *Controller) MergeExperiments(ctx echo.Context) error {
	into := ctx.Param("name")
	if err := c.Session.MergeExperiments(into, ctx.Param("from")); err != nil {
		return c.fail(ctx, err, "failed to merge experiments")
	}

	e, err := c.Session.Experiment(into)
	if err != nil {
		return c.fail(ctx, err, "experiment not found")
	}
	return ctx.JSON(http.StatusOK, c.summarize(e))
}
