package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenFilenamesGamry(t *testing.T) {
	inst, err := ScreenFilenames([]string{"cycle1.dta", "cycle2.DTA"})
	require.NoError(t, err)
	assert.Equal(t, InstrumentGamry, inst)
}

func TestScreenFilenamesBiologic(t *testing.T) {
	inst, err := ScreenFilenames([]string{"run.mpt"})
	require.NoError(t, err)
	assert.Equal(t, InstrumentBiologic, inst)
}

func TestScreenFilenamesUnsupported(t *testing.T) {
	_, err := ScreenFilenames([]string{"data.csv"})
	require.Error(t, err)

	var unsupported *UnsupportedFileExtensionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "data.csv", unsupported.Filename)
	assert.Equal(t, ".csv", unsupported.Extension)
}

func TestScreenFilenamesMixed(t *testing.T) {
	_, err := ScreenFilenames([]string{"a.dta", "b.mpt"})
	require.Error(t, err)

	var mixed *MixedFileExtensionsError
	require.ErrorAs(t, err, &mixed)
	assert.Equal(t, []string{".dta", ".mpt"}, mixed.Extensions)
}

func TestScreenFilenamesEmptyBatch(t *testing.T) {
	_, err := ScreenFilenames(nil)
	assert.Error(t, err)
}

func TestInstrumentForExtension(t *testing.T) {
	inst, err := InstrumentForExtension("dta")
	require.NoError(t, err)
	assert.Equal(t, InstrumentGamry, inst)

	inst, err = InstrumentForExtension(".MPT")
	require.NoError(t, err)
	assert.Equal(t, InstrumentBiologic, inst)

	_, err = InstrumentForExtension(".xls")
	assert.Error(t, err)
}
