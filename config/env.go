package config

import (
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ScenePath and Load. They take precedence over the scene file.
const (
	EnvScenePath   = "OXY_GAZE_SCENE"
	EnvAsset       = "OXY_GAZE_ASSET"
	EnvSmoothing   = "OXY_GAZE_SMOOTHING"
	EnvPresentMode = "OXY_GAZE_PRESENT_MODE"
)

// LoadEnvFile loads variables from .env files into the process environment.
// Variables that are already set are not overridden.
//
// Parameters:
//   - paths: the files to read; none means ".env" in the working directory
//
// Returns:
//   - error: error if a file is missing or malformed
func LoadEnvFile(paths ...string) error {
	return godotenv.Load(paths...)
}

// ScenePath returns the scene file named by OXY_GAZE_SCENE, or fallback when it is unset.
func ScenePath(fallback string) string {
	if p := os.Getenv(EnvScenePath); p != "" {
		return p
	}
	return fallback
}

// applyEnv overrides file values with any OXY_GAZE_* variables that are set.
// A smoothing value that does not parse is kept as NaN so Validate reports it.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAsset); v != "" {
		c.Asset = v
	}
	if v := os.Getenv(EnvPresentMode); v != "" {
		c.Render.PresentMode = v
	}
	if v := os.Getenv(EnvSmoothing); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			c.Gaze.Smoothing = float32(math.NaN())
			return
		}
		c.Gaze.Smoothing = float32(f)
	}
}
