package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSettings() *Settings {
	s := &Settings{}
	s.WebServer.Enabled = true
	s.WebServer.Port = "8090"
	s.Plot.ShadeMinLightness = 0.30
	s.Plot.ShadeMaxLightness = 0.85
	s.Plot.StrideGuessDiv = 10
	s.Plot.DefaultBaseColor = "#636EFA"
	return s
}

func TestValidateSettingsOK(t *testing.T) {
	assert.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsBadPort(t *testing.T) {
	tests := []string{"", "0", "-1", "70000", "http"}
	for _, port := range tests {
		t.Run(port, func(t *testing.T) {
			s := validSettings()
			s.WebServer.Port = port
			assert.Error(t, ValidateSettings(s))
		})
	}
}

func TestValidateSettingsPortIgnoredWhenServerDisabled(t *testing.T) {
	s := validSettings()
	s.WebServer.Enabled = false
	s.WebServer.Port = "not-a-port"
	assert.NoError(t, ValidateSettings(s))
}

func TestValidateSettingsShadeBand(t *testing.T) {
	s := validSettings()
	s.Plot.ShadeMinLightness = 0.9
	s.Plot.ShadeMaxLightness = 0.5
	assert.Error(t, ValidateSettings(s), "inverted band must be rejected")

	s = validSettings()
	s.Plot.ShadeMaxLightness = 1.5
	assert.Error(t, ValidateSettings(s), "band outside [0,1] must be rejected")
}

func TestValidateSettingsStrideGuess(t *testing.T) {
	s := validSettings()
	s.Plot.StrideGuessDiv = 0
	assert.Error(t, ValidateSettings(s))
}
