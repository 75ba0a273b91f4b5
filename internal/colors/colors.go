// Package colors provides the experiment base colors, the per-cycle shade
// computation and the fallback qualitative palette used by the plot views.
package colors

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/echemtools/cellcycle-go/internal/errors"
)

// Default perceptual lightness band over which cycle shades are spread.
// The band is a sub-interval of the HSLuv lightness range [0, 1].
const (
	DefaultMinLightness = 0.30
	DefaultMaxLightness = 0.85
)

// Color is an RGB color with 8-bit channels. It is the value stored on an
// experiment and in comparison series; all derived shades are computed from
// it on demand and never cached. It serializes as a "#rrggbb" hex string.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// MarshalText implements encoding.TextMarshaler, so the JSON and YAML forms
// of a Color are its hex string.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler; yaml.v3 does not consult
// encoding.TextMarshaler on its own.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var hex string
	if err := value.Decode(&hex); err != nil {
		return err
	}
	return c.UnmarshalText([]byte(hex))
}

// FromHex parses a "#RRGGBB" hex string into a Color.
func FromHex(hex string) (Color, error) {
	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return Color{}, errors.New(fmt.Errorf("invalid hex color %q: %w", hex, err)).
			Category(errors.CategoryValidation).
			Build()
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// MustHex parses a hex string and panics on failure. For package-internal
// constants and tests only.
func MustHex(hex string) Color {
	c, err := FromHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the "#rrggbb" representation of the color.
func (c Color) Hex() string {
	return c.colorful().Hex()
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Shade computes the shade of rank index among total shades derived from the
// base color, using the default lightness band. The function is pure and
// deterministic; repeated calls with identical arguments yield identical
// results, which is relied upon because shades are recomputed on every redraw.
func Shade(index, total int, base Color, reversed bool) (Color, error) {
	return ShadeBand(index, total, base, reversed, DefaultMinLightness, DefaultMaxLightness)
}

// ShadeBand is Shade with an explicit lightness band, allowing the band to be
// taken from configuration. With total == 1 the base color is returned
// unchanged regardless of index. Otherwise index must lie in [0, total).
func ShadeBand(index, total int, base Color, reversed bool, minLightness, maxLightness float64) (Color, error) {
	if total < 1 {
		return Color{}, errors.Newf("shade total must be at least 1, got %d", total).
			Category(errors.CategoryValidation).
			Build()
	}
	if total == 1 {
		return base, nil
	}
	if index < 0 || index >= total {
		return Color{}, errors.Newf("shade index %d out of range [0, %d)", index, total).
			Category(errors.CategoryValidation).
			Build()
	}

	t := float64(index) / float64(total-1)
	if reversed {
		t = 1 - t
	}

	// Interpolate lightness in HSLuv space, keeping hue and saturation of the
	// base color. HSLuv is perceptually uniform, so equal steps in t give
	// visually even shade steps.
	h, s, _ := base.colorful().HSLuv()
	l := minLightness + t*(maxLightness-minLightness)

	r, g, b := colorful.HSLuv(h, s, l).Clamped().RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// plotlyPalette is the qualitative palette used as the fallback color for
// comparison series that do not derive their color from an experiment base.
var plotlyPalette = []Color{
	MustHex("#636EFA"),
	MustHex("#EF553B"),
	MustHex("#00CC96"),
	MustHex("#AB63FA"),
	MustHex("#FFA15A"),
	MustHex("#19D3F3"),
	MustHex("#FF6692"),
	MustHex("#B6E880"),
	MustHex("#FF97FF"),
	MustHex("#FECB52"),
}

// PlotlyColor returns the i-th color of the qualitative palette, wrapping
// around when i exceeds the palette size. Negative indices map to index 0.
func PlotlyColor(i int) Color {
	if i < 0 {
		i = 0
	}
	return plotlyPalette[i%len(plotlyPalette)]
}

// PaletteSize returns the number of distinct palette colors.
func PaletteSize() int {
	return len(plotlyPalette)
}
