package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/experiment"
	"github.com/echemtools/cellcycle-go/internal/ingest"
)

func newExperiment(t *testing.T, name string) *experiment.Experiment {
	t.Helper()
	batch := &ingest.Batch{
		Instrument: ingest.InstrumentGamry,
		Records: []*cycling.HalfcycleRecord{
			{Filename: name + ".dta", Type: cycling.Charge, Voltage: []float64{3.0, 4.2}},
		},
		Suggested: cycling.OrderingTable{
			name + ".dta": {CycleIndex: 0, SlotIndex: 0},
		},
	}
	e, err := experiment.New(name, batch, colors.MustHex("#636EFA"), nil)
	require.NoError(t, err)
	return e
}

func TestAddAndOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newExperiment(t, "alpha")))
	require.NoError(t, r.Add(newExperiment(t, "beta")))

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
	assert.Equal(t, 0, r.IndexOf("alpha"))
	assert.Equal(t, 1, r.IndexOf("beta"))
	assert.Equal(t, -1, r.IndexOf("gamma"))
}

func TestAddDuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newExperiment(t, "alpha")))

	err := r.Add(newExperiment(t, "alpha"))
	require.Error(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestGetUnknownIsStateError(t *testing.T) {
	r := New()

	_, err := r.Get("ghost")
	require.Error(t, err)

	var notFound *ExperimentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Name)
}

func TestRenamePreservesRank(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newExperiment(t, "alpha")))
	require.NoError(t, r.Add(newExperiment(t, "beta")))

	require.NoError(t, r.Rename("alpha", "gamma"))
	assert.Equal(t, []string{"gamma", "beta"}, r.Names())
	assert.Equal(t, 0, r.IndexOf("gamma"))
	assert.False(t, r.Has("alpha"))

	e, err := r.Get("gamma")
	require.NoError(t, err)
	assert.Equal(t, "gamma", e.Name())
}

func TestRenameToTakenName(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newExperiment(t, "alpha")))
	require.NoError(t, r.Add(newExperiment(t, "beta")))

	err := r.Rename("alpha", "beta")
	require.Error(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestRemoveShiftsRanks(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newExperiment(t, "alpha")))
	require.NoError(t, r.Add(newExperiment(t, "beta")))
	require.NoError(t, r.Add(newExperiment(t, "gamma")))

	require.NoError(t, r.Remove("beta"))
	assert.Equal(t, []string{"alpha", "gamma"}, r.Names())
	assert.Equal(t, 1, r.IndexOf("gamma"))

	err := r.Remove("beta")
	require.Error(t, err)
}
