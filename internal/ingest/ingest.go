// Package ingest defines the boundary between uploaded instrument files and
// the reconciliation engine. The actual file format parsing is done by an
// external parser implementing the Parser interface; this package only
// screens uploads (supported extensions, single instrument family per batch)
// before any of them reach the core.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
)

// Instrument identifies the instrument family that produced a batch of files.
// The set is closed; each family has its own file format and parser.
type Instrument string

const (
	InstrumentGamry    Instrument = "GAMRY"
	InstrumentBiologic Instrument = "BIOLOGIC"
)

// extensionInstruments maps supported file extensions (lowercase, with dot)
// to their instrument family.
var extensionInstruments = map[string]Instrument{
	".dta": InstrumentGamry,
	".mpt": InstrumentBiologic,
}

// Upload is one file handed over by the upload layer. The raw bytes are only
// ever seen by the parser, never by the engine.
type Upload struct {
	Filename string
	Data     []byte
}

// Batch is the parser output for one upload batch: the parsed halfcycle
// records, a suggested default placement for each of them, and the files the
// parser could not extract any data from.
type Batch struct {
	Instrument Instrument
	Records    []*cycling.HalfcycleRecord
	Suggested  cycling.OrderingTable
	Skipped    []string
}

// Parser turns uploaded instrument files into halfcycle records. It is an
// external collaborator; implementations must also provide the instrument
// specific rule for merging partial halfcycle files, which the assembler
// applies to multi-slot cycle groups.
type Parser interface {
	// Parse extracts halfcycle records from the uploaded files. Files that
	// yield no data are reported in Batch.Skipped, not as an error.
	Parse(ctx context.Context, files []Upload) (*Batch, error)

	// Instrument returns the family this parser handles.
	Instrument() Instrument

	// Merge is the instrument's rule for joining partial halfcycle files.
	Merge() cycling.MergeFunc
}

// UnsupportedFileExtensionError reports an upload with an extension outside
// the closed instrument family set.
type UnsupportedFileExtensionError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFileExtensionError) Error() string {
	return fmt.Sprintf("unsupported file extension %q for file %q", e.Extension, e.Filename)
}

// ErrorCategory implements errors.CategorizedError.
func (e *UnsupportedFileExtensionError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryIngestion
}

// MixedFileExtensionsError reports an upload batch spanning more than one
// instrument family.
type MixedFileExtensionsError struct {
	Extensions []string // distinct extensions seen, sorted
}

func (e *MixedFileExtensionsError) Error() string {
	return fmt.Sprintf("cannot operate on mixed file types in one batch: %s", strings.Join(e.Extensions, ", "))
}

// ErrorCategory implements errors.CategorizedError.
func (e *MixedFileExtensionsError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryIngestion
}

// ScreenFilenames checks that every filename carries a supported extension
// and that the whole batch belongs to a single instrument family, returning
// that family. It is called before any upload reaches a parser.
func ScreenFilenames(filenames []string) (Instrument, error) {
	if len(filenames) == 0 {
		return "", errors.Newf("empty upload batch").
			Category(errors.CategoryIngestion).
			Build()
	}

	seen := make(map[string]bool)
	var instrument Instrument
	for _, name := range filenames {
		ext := strings.ToLower(filepath.Ext(name))
		inst, ok := extensionInstruments[ext]
		if !ok {
			return "", &UnsupportedFileExtensionError{Filename: name, Extension: ext}
		}
		seen[ext] = true
		instrument = inst
	}

	if len(seen) > 1 {
		exts := make([]string, 0, len(seen))
		for ext := range seen {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		return "", &MixedFileExtensionsError{Extensions: exts}
	}

	return instrument, nil
}

// InstrumentForExtension returns the instrument family of a single file
// extension (with or without the leading dot).
func InstrumentForExtension(ext string) (Instrument, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	inst, ok := extensionInstruments[strings.ToLower(ext)]
	if !ok {
		return "", &UnsupportedFileExtensionError{Extension: ext}
	}
	return inst, nil
}
