package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/ingest"
)

func testRecord(name string, t cycling.HalfcycleType) *cycling.HalfcycleRecord {
	return &cycling.HalfcycleRecord{
		Filename: name,
		Type:     t,
		Time:     []float64{0, 1, 2},
		Voltage:  []float64{3.0, 3.5, 4.2},
		Current:  []float64{0.1, 0.1, 0.1},
		Charge:   []float64{0, 5, 10},
		Power:    []float64{0.3, 0.35, 0.42},
		Energy:   []float64{0, 1.5, 3},
	}
}

// testBatch builds an alternating charge/discharge batch where file i fills
// slot 0 of cycle i.
func testBatch(instrument ingest.Instrument, names ...string) *ingest.Batch {
	b := &ingest.Batch{
		Instrument: instrument,
		Suggested:  make(cycling.OrderingTable),
	}
	for i, name := range names {
		ht := cycling.Charge
		if i%2 == 1 {
			ht = cycling.Discharge
		}
		b.Records = append(b.Records, testRecord(name, ht))
		b.Suggested[name] = cycling.OrderingEntry{CycleIndex: i, SlotIndex: 0}
	}
	return b
}

func newTestExperiment(t *testing.T, names ...string) *Experiment {
	t.Helper()
	e, err := New("cell-1", testBatch(ingest.InstrumentGamry, names...), colors.MustHex("#636EFA"), nil)
	require.NoError(t, err)
	return e
}

func TestNewAssemblesSuggestedOrdering(t *testing.T) {
	e := newTestExperiment(t, "c0.dta", "d0.dta", "c1.dta")

	assert.Equal(t, 3, e.CycleCount())
	assert.Len(t, e.VisibleCycles(), 3)

	c := e.CycleByIndex(0)
	require.NotNil(t, c)
	assert.NotNil(t, c.ChargeRec)
	assert.Nil(t, c.DischRec)

	c = e.CycleByIndex(1)
	require.NotNil(t, c)
	assert.NotNil(t, c.DischRec)
}

func TestAddBatchInstrumentMismatch(t *testing.T) {
	e := newTestExperiment(t, "c0.dta")

	err := e.AddBatch(testBatch(ingest.InstrumentBiologic, "d0.mpt"))
	require.Error(t, err)

	var mismatch *InstrumentMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, ingest.InstrumentGamry, mismatch.Expected)
	assert.Equal(t, ingest.InstrumentBiologic, mismatch.Got)

	// Rejection before any mutation.
	assert.Equal(t, []string{"c0.dta"}, e.Files())
	assert.Equal(t, 1, e.CycleCount())
}

func TestAddBatchRejectsDuplicateFile(t *testing.T) {
	e := newTestExperiment(t, "c0.dta")

	err := e.AddBatch(testBatch(ingest.InstrumentGamry, "c0.dta"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Equal(t, 1, e.CycleCount())
}

func TestAddBatchRollsBackOnCollision(t *testing.T) {
	e := newTestExperiment(t, "c0.dta", "d0.dta")
	before := e.Ordering()

	// The new file claims cycle 0 slot 0, already occupied by c0.dta.
	b := testBatch(ingest.InstrumentGamry, "x.dta")
	err := e.AddBatch(b)
	require.Error(t, err)

	var rep *cycling.SlotRepetitionError
	require.ErrorAs(t, err, &rep)

	assert.Equal(t, before, e.Ordering())
	assert.Equal(t, []string{"c0.dta", "d0.dta"}, e.Files())
}

func TestRemoveFileLeavesPlaceholderGap(t *testing.T) {
	e := newTestExperiment(t, "c0.dta", "d0.dta", "c1.dta")

	require.NoError(t, e.RemoveFile("d0.dta"))

	// Positional indices of the surviving cycles do not shift.
	assert.Equal(t, 3, e.CycleCount())
	assert.Nil(t, e.CycleByIndex(1))
	assert.Len(t, e.VisibleCycles(), 2)

	c := e.CycleByIndex(2)
	require.NotNil(t, c)
	assert.Equal(t, 2, c.Index)
}

func TestRemoveFileUnknown(t *testing.T) {
	e := newTestExperiment(t, "c0.dta")

	err := e.RemoveFile("nope.dta")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSetOrderingAtomicCommit(t *testing.T) {
	e := newTestExperiment(t, "c0.dta", "d0.dta")

	table := e.Ordering()
	table["c0.dta"] = cycling.OrderingEntry{CycleIndex: 1, SlotIndex: 0}
	table["d0.dta"] = cycling.OrderingEntry{CycleIndex: 0, SlotIndex: 0}
	require.NoError(t, e.SetOrdering(table))

	c := e.CycleByIndex(0)
	require.NotNil(t, c)
	assert.NotNil(t, c.DischRec)
}

func TestSetOrderingRejectsGapAndKeepsState(t *testing.T) {
	e := newTestExperiment(t, "c0.dta", "d0.dta")
	before := e.Ordering()

	table := e.Ordering()
	table["d0.dta"] = cycling.OrderingEntry{CycleIndex: 5, SlotIndex: 0}
	err := e.SetOrdering(table)
	require.Error(t, err)

	var missing *cycling.MissingCycleIndicesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []int{1, 2, 3, 4}, missing.Missing)

	assert.Equal(t, before, e.Ordering())
}

func TestSetOrderingRejectsUnknownFile(t *testing.T) {
	e := newTestExperiment(t, "c0.dta")

	table := cycling.OrderingTable{
		"ghost.dta": {CycleIndex: 0, SlotIndex: 0},
	}
	err := e.SetOrdering(table)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryOrdering))
}

func TestMergeShiftsCycleIndices(t *testing.T) {
	a := newTestExperiment(t, "c0.dta", "d0.dta")
	b, err := New("cell-2", testBatch(ingest.InstrumentGamry, "c1.dta", "d1.dta"), colors.MustHex("#EF553B"), nil)
	require.NoError(t, err)

	require.NoError(t, a.Merge(b))

	assert.Equal(t, 4, a.CycleCount())
	assert.Equal(t, []string{"c0.dta", "d0.dta", "c1.dta", "d1.dta"}, a.Files())

	ord := a.Ordering()
	assert.Equal(t, 2, ord["c1.dta"].CycleIndex)
	assert.Equal(t, 3, ord["d1.dta"].CycleIndex)
}

func TestMergeInstrumentMismatch(t *testing.T) {
	a := newTestExperiment(t, "c0.dta")
	b, err := New("cell-2", testBatch(ingest.InstrumentBiologic, "c0.mpt"), colors.MustHex("#EF553B"), nil)
	require.NoError(t, err)

	err = a.Merge(b)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryInstrumentMismatch))
	assert.Equal(t, 1, a.CycleCount())
}

func TestCleanFlagHidesImplausibleCycles(t *testing.T) {
	e := newTestExperiment(t, "c0.dta", "d0.dta")
	e.SetPlausibility(func(c *cycling.Cycle) bool {
		// Only a complete charge/discharge pair counts as plausible here.
		return c.ChargeRec != nil && c.DischRec != nil
	})

	assert.Len(t, e.VisibleCycles(), 2)

	e.SetClean(true)
	assert.Empty(t, e.VisibleCycles())

	e.SetClean(false)
	assert.Len(t, e.VisibleCycles(), 2)
}

func TestNormalizationSetters(t *testing.T) {
	e := newTestExperiment(t, "c0.dta")

	require.NoError(t, e.SetVolume(0.02))
	require.NoError(t, e.SetArea(1.5))
	assert.Equal(t, cycling.Normalization{Volume: 0.02, Area: 1.5}, e.Normalization())

	assert.Error(t, e.SetVolume(-1))
	assert.Error(t, e.SetArea(-0.1))
	assert.Equal(t, 0.02, e.Volume())
	assert.Equal(t, 1.5, e.Area())
}
