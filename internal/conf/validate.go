// conf/validate.go settings validation
package conf

import (
	"fmt"
	"strconv"

	"github.com/echemtools/cellcycle-go/internal/errors"
)

// ValidateSettings checks the loaded settings for structurally invalid values.
// Validation failures are configuration errors; the application refuses to start on them.
func ValidateSettings(settings *Settings) error {
	if settings.WebServer.Enabled {
		port, err := strconv.Atoi(settings.WebServer.Port)
		if err != nil || port < 1 || port > 65535 {
			return errors.Newf("invalid web server port %q", settings.WebServer.Port).
				Category(errors.CategoryConfiguration).
				Context("port", settings.WebServer.Port).
				Build()
		}
	}

	if err := validateShadeBand(settings.Plot); err != nil {
		return err
	}

	if settings.Plot.StrideGuessDiv < 1 {
		return errors.Newf("plot.strideguessdiv must be at least 1, got %d", settings.Plot.StrideGuessDiv).
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}

// validateShadeBand checks that the shade lightness band is a proper sub-interval of [0, 1].
func validateShadeBand(plot PlotConfig) error {
	if plot.ShadeMinLightness < 0 || plot.ShadeMaxLightness > 1 {
		return errors.New(fmt.Errorf("shade lightness band [%v, %v] outside [0, 1]",
			plot.ShadeMinLightness, plot.ShadeMaxLightness)).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if plot.ShadeMinLightness >= plot.ShadeMaxLightness {
		return errors.Newf("shade lightness band is empty: min %v >= max %v",
			plot.ShadeMinLightness, plot.ShadeMaxLightness).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
