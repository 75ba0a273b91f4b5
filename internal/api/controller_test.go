package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echemtools/cellcycle-go/internal/conf"
	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/ingest"
	"github.com/echemtools/cellcycle-go/internal/registry"
	"github.com/echemtools/cellcycle-go/internal/session"
)

// fakeParser turns every .dta upload into one alternating halfcycle record,
// filling slot 0 of consecutive cycles.
type fakeParser struct{}

func (fakeParser) Instrument() ingest.Instrument { return ingest.InstrumentGamry }

func (fakeParser) Merge() cycling.MergeFunc { return nil }

func (fakeParser) Parse(_ context.Context, files []ingest.Upload) (*ingest.Batch, error) {
	b := &ingest.Batch{
		Instrument: ingest.InstrumentGamry,
		Suggested:  make(cycling.OrderingTable),
	}
	for i, f := range files {
		ht := cycling.Charge
		if i%2 == 1 {
			ht = cycling.Discharge
		}
		b.Records = append(b.Records, &cycling.HalfcycleRecord{
			Filename: f.Filename,
			Type:     ht,
			Time:     []float64{0, 1},
			Voltage:  []float64{3.0, 4.2},
			Current:  []float64{0.1, 0.1},
			Charge:   []float64{0, 5},
			Power:    []float64{0.3, 0.42},
			Energy:   []float64{0, 1.5},
		})
		b.Suggested[f.Filename] = cycling.OrderingEntry{CycleIndex: i, SlotIndex: 0}
	}
	return b, nil
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	settings := &conf.Settings{}
	settings.Session.DumpPath = t.TempDir()
	return New(echo.New(), settings, session.New(), []ingest.Parser{fakeParser{}})
}

func multipartUpload(t *testing.T, name string, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if name != "" {
		require.NoError(t, w.WriteField("name", name))
	}
	for _, fn := range filenames {
		fw, err := w.CreateFormFile("files", fn)
		require.NoError(t, err)
		_, err = fw.Write([]byte("EXPLAIN\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doRequest(c *Controller, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func doJSON(c *Controller, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	return doRequest(c, method, path, echo.MIMEApplicationJSON, &body)
}

func createExperiment(t *testing.T, c *Controller, name string, files ...string) {
	t.Helper()
	body, ct := multipartUpload(t, name, files...)
	rec := doRequest(c, http.MethodPost, "/api/v1/experiments", ct, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	c := newTestController(t)
	rec := doRequest(c, http.MethodGet, "/api/v1/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestCreateExperimentFromUpload(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "cell", "a.dta", "b.dta")

	rec := doRequest(c, http.MethodGet, "/api/v1/experiments/cell", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Name       string `json:"name"`
		Instrument string `json:"instrument"`
		CycleCount int    `json:"cyclecount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "cell", got.Name)
	assert.Equal(t, "GAMRY", got.Instrument)
	assert.Equal(t, 2, got.CycleCount)
}

func TestCreateExperimentDefaultName(t *testing.T) {
	c := newTestController(t)
	body, ct := multipartUpload(t, "", "a.dta")
	rec := doRequest(c, http.MethodPost, "/api/v1/experiments", ct, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "experiment_1")
}

func TestCreateExperimentMixedExtensionsRejected(t *testing.T) {
	c := newTestController(t)
	body, ct := multipartUpload(t, "cell", "a.dta", "b.mpt")
	rec := doRequest(c, http.MethodPost, "/api/v1/experiments", ct, body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrderingValidateAndCommit(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "cell", "a.dta", "b.dta")

	// A draft with a gap is reported invalid without being committed.
	draft := map[string]any{"entries": map[string]any{
		"a.dta": map[string]int{"cycle_index": 0, "slot_index": 0},
		"b.dta": map[string]int{"cycle_index": 5, "slot_index": 0},
	}}
	rec := doJSON(c, http.MethodPost, "/api/v1/experiments/cell/ordering/validate", draft)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)

	rec = doJSON(c, http.MethodPut, "/api/v1/experiments/cell/ordering", draft)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// A contiguous swap commits.
	swap := map[string]any{"entries": map[string]any{
		"a.dta": map[string]int{"cycle_index": 1, "slot_index": 0},
		"b.dta": map[string]int{"cycle_index": 0, "slot_index": 0},
	}}
	rec = doJSON(c, http.MethodPost, "/api/v1/experiments/cell/ordering/validate", swap)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)

	rec = doJSON(c, http.MethodPut, "/api/v1/experiments/cell/ordering", swap)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateExperimentMetadata(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "cell", "a.dta")

	upd := map[string]any{"volume": 0.02, "basecolor": "#FF0000", "name": "cell-2"}
	rec := doJSON(c, http.MethodPatch, "/api/v1/experiments/cell", upd)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"cell-2"`)
	assert.Contains(t, rec.Body.String(), "#ff0000")

	rec = doRequest(c, http.MethodGet, "/api/v1/experiments/cell", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectionRoutes(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "cell", "a.dta", "b.dta", "c.dta", "d.dta", "e.dta")

	rec := doJSON(c, http.MethodPut, "/api/v1/experiments/cell/selection/stride",
		map[string]int{"start": 0, "stop": 9, "stride": 2})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(c, http.MethodPut, "/api/v1/experiments/cell/cycles/2/label",
		map[string]string{"label": "midlife"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(c, http.MethodGet, "/api/v1/selection", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sel map[string][]struct {
		CycleIndex int    `json:"cycle_index"`
		Label      string `json:"label"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	require.Len(t, sel["cell"], 3)
	assert.Equal(t, 0, sel["cell"][0].CycleIndex)
	assert.Equal(t, "cycle 0", sel["cell"][0].Label)
	assert.Equal(t, "midlife", sel["cell"][1].Label)
}

func TestComparisonRoutes(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "cell", "a.dta", "b.dta", "c.dta")

	rec := doJSON(c, http.MethodPost, "/api/v1/comparison/stride", map[string]any{
		"experiment": "cell", "label_prefix": "cycle",
		"start": 0, "stop": 2, "stride": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"added":2`)

	// Duplicate manual pick is rejected, the buffer keeps both entries.
	rec = doJSON(c, http.MethodPost, "/api/v1/comparison", map[string]any{
		"experiment": "cell", "cycle_index": 0, "label": "again",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(c, http.MethodPatch, "/api/v1/comparison/0", map[string]any{
		"label": "formation", "color": "#FF0000",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(c, http.MethodGet, "/api/v1/comparison", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var series []struct {
		Label         string `json:"label"`
		Color         string `json:"color"`
		ColorFromBase bool   `json:"color_from_base"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series, 2)
	assert.Equal(t, "formation", series[0].Label)
	assert.Equal(t, "#ff0000", series[0].Color)
	assert.False(t, series[0].ColorFromBase)

	rec = doRequest(c, http.MethodDelete, "/api/v1/comparison/experiment/cell", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removed":2`)
}

func TestCycleSeriesEndpoint(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "cell", "a.dta")

	// Area normalization switches the current label to a density unit.
	rec := doJSON(c, http.MethodPatch, "/api/v1/experiments/cell", map[string]any{"area": 2.0})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(c, http.MethodGet,
		"/api/v1/experiments/cell/cycles/0/series?half=charge&metric=current", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Label  string    `json:"label"`
		Values []float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Current density (A/cm²)", got.Label)
	assert.Equal(t, []float64{0.05, 0.05}, got.Values)

	rec = doRequest(c, http.MethodGet,
		"/api/v1/experiments/cell/cycles/0/series?half=discharge&metric=current", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(c, http.MethodGet,
		"/api/v1/experiments/cell/cycles/0/series?half=charge&metric=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusForErrorMapping(t *testing.T) {
	c := newTestController(t)

	rec := doRequest(c, http.MethodGet, "/api/v1/experiments/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CorrelationID)
	assert.True(t, strings.Contains(resp.Error, "ghost"), resp.Error)
}

func TestPanicWritesSessionDump(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "cell", "a.dta")
	c.Group.GET("/explode", func(echo.Context) error {
		panic("halfcycle table corrupted")
	})

	rec := doRequest(c, http.MethodGet, "/api/v1/explode", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CorrelationID)
	assert.Contains(t, resp.Error, "halfcycle table corrupted")

	dump := filepath.Join(c.Settings.Session.DumpPath, "cellcycle_dump_0.yaml")
	_, err := os.Stat(dump)
	assert.NoError(t, err)
}

func TestStateErrorsAreServerErrors(t *testing.T) {
	stateErr := errors.Newf("experiment rank out of range").
		Category(errors.CategoryState).
		Build()
	assert.Equal(t, http.StatusInternalServerError, statusForError(stateErr))

	// A miss on a client-supplied name stays an ordinary not-found.
	assert.Equal(t, http.StatusNotFound,
		statusForError(&registry.ExperimentNotFoundError{Name: "ghost"}))
}

func TestMergeEndpoint(t *testing.T) {
	c := newTestController(t)
	createExperiment(t, c, "left", "a.dta", "b.dta")
	createExperiment(t, c, "right", "c.dta", "d.dta")

	rec := doRequest(c, http.MethodPost, "/api/v1/experiments/left/merge/right", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"cyclecount":%d`, 4))

	rec = doRequest(c, http.MethodGet, "/api/v1/experiments/right", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
