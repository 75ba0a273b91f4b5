// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "cellcycle-go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "cellcycle.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", "8090")

	viper.SetDefault("session.dumppath", ".")

	viper.SetDefault("plot.shademinlightness", 0.30)
	viper.SetDefault("plot.shademaxlightness", 0.85)
	viper.SetDefault("plot.strideguessdiv", 10)
	viper.SetDefault("plot.defaultbasecolor", "#636EFA")
}
