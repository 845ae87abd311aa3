// Package config loads the YAML file that describes a gaze scene: window, camera,
// reference plane, tracker settings, the asset to load and the nodes to track.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gaze/common"
	"github.com/Carmen-Shannon/oxy-gaze/engine/gaze"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and Load when a value is out of range.
var ErrInvalidConfig = errors.New("config: invalid scene configuration")

// Config is the root of a scene file.
type Config struct {
	Window WindowConfig `yaml:"window"`
	Camera CameraConfig `yaml:"camera"`
	Gaze   GazeConfig   `yaml:"gaze"`
	Render RenderConfig `yaml:"render"`

	// Asset is the .gltf or .glb file to load. Relative paths are resolved against the
	// directory of the scene file.
	Asset string `yaml:"asset"`

	path string
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type CameraConfig struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	Fov      float32    `yaml:"fov"` // vertical field of view in degrees
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
}

type GazeConfig struct {
	PlaneNormal [3]float32 `yaml:"plane_normal"`
	PlanePoint  [3]float32 `yaml:"plane_point"`
	Smoothing   float32    `yaml:"smoothing"`
	ForwardAxis string     `yaml:"forward_axis"`
	Eyes        []string   `yaml:"eyes"`
}

type RenderConfig struct {
	ClearColor  [4]float64 `yaml:"clear_color"`
	PresentMode string     `yaml:"present_mode"`
	TickRate    float64    `yaml:"tick_rate"`
}

// Defaults used for any value left out of a scene file.
var (
	DefaultTitle       = "oxy-gaze"
	DefaultWidth       = 1280
	DefaultHeight      = 720
	DefaultPosition    = [3]float32{0, 2, 5}
	DefaultFov         = float32(45)
	DefaultNear        = float32(0.1)
	DefaultFar         = float32(100)
	DefaultPlaneNormal = [3]float32{0, 0, 1}
	DefaultSmoothing   = float32(0.15)
	DefaultForwardAxis = "-z"
	DefaultEyes        = []string{"LeftEye", "RightEye"}
	DefaultClearColor  = [4]float64{0.08, 0.08, 0.1, 1}
	DefaultPresentMode = "vsync"
	DefaultTickRate    = 60.0
)

// Load reads, defaults and validates the scene file at path.
// OXY_GAZE_* environment variables override the values in the file.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - *Config: the validated configuration
//   - error: a read or parse error, or one wrapping ErrInvalidConfig
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.path = path
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a scene file and fills in defaults. Unknown keys are rejected.
// The result is not validated.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Config: the decoded configuration
//   - error: error if the document is malformed
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Window.Title = common.Coalesce(c.Window.Title, DefaultTitle)
	c.Window.Width = common.Coalesce(c.Window.Width, DefaultWidth)
	c.Window.Height = common.Coalesce(c.Window.Height, DefaultHeight)

	c.Camera.Position = common.Coalesce(c.Camera.Position, DefaultPosition)
	c.Camera.Fov = common.Coalesce(c.Camera.Fov, DefaultFov)
	c.Camera.Near = common.Coalesce(c.Camera.Near, DefaultNear)
	c.Camera.Far = common.Coalesce(c.Camera.Far, DefaultFar)

	c.Gaze.PlaneNormal = common.Coalesce(c.Gaze.PlaneNormal, DefaultPlaneNormal)
	c.Gaze.Smoothing = common.Coalesce(c.Gaze.Smoothing, DefaultSmoothing)
	c.Gaze.ForwardAxis = common.Coalesce(c.Gaze.ForwardAxis, DefaultForwardAxis)
	if len(c.Gaze.Eyes) == 0 {
		c.Gaze.Eyes = append([]string(nil), DefaultEyes...)
	}

	c.Render.ClearColor = common.Coalesce(c.Render.ClearColor, DefaultClearColor)
	c.Render.PresentMode = common.Coalesce(c.Render.PresentMode, DefaultPresentMode)
	c.Render.TickRate = common.Coalesce(c.Render.TickRate, DefaultTickRate)
}

// Validate checks every value and reports all problems at once.
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalidConfig that lists each problem
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		add("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}

	if !(c.Camera.Fov > 0 && c.Camera.Fov < 180) {
		add("camera fov %v must be in (0, 180) degrees", c.Camera.Fov)
	}
	if !(c.Camera.Near > 0) || !(c.Camera.Far > c.Camera.Near) {
		add("camera near %v and far %v must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.Position == c.Camera.Target {
		add("camera position and target must differ")
	}
	if !finite3(c.Camera.Position) || !finite3(c.Camera.Target) {
		add("camera position and target must be finite")
	}

	if !c.Plane().Valid() {
		add("plane normal %v must be non-zero and finite", c.Gaze.PlaneNormal)
	}
	if !finite3(c.Gaze.PlanePoint) {
		add("plane point %v must be finite", c.Gaze.PlanePoint)
	}
	if !(c.Gaze.Smoothing > 0 && c.Gaze.Smoothing <= 1) {
		add("smoothing %v must be in (0, 1]", c.Gaze.Smoothing)
	}
	if _, err := gaze.ParseForwardAxis(c.Gaze.ForwardAxis); err != nil {
		add("forward_axis %q must be \"-z\" or \"+z\"", c.Gaze.ForwardAxis)
	}
	for i, name := range c.Gaze.Eyes {
		if strings.TrimSpace(name) == "" {
			add("eyes[%d] is empty", i)
		}
	}

	switch strings.ToLower(filepath.Ext(c.Asset)) {
	case ".gltf", ".glb":
	default:
		add("asset %q must be a .gltf or .glb file", c.Asset)
	}

	for _, v := range c.Render.ClearColor {
		if !(v >= 0 && v <= 1) {
			add("clear_color %v components must be in [0, 1]", c.Render.ClearColor)
			break
		}
	}
	if c.Render.PresentMode != "vsync" && c.Render.PresentMode != "uncapped" {
		add("present_mode %q must be \"vsync\" or \"uncapped\"", c.Render.PresentMode)
	}
	if !(c.Render.TickRate > 0) {
		add("tick_rate %v must be positive", c.Render.TickRate)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Path returns the file the configuration was loaded from, or "" if it was parsed from memory.
func (c *Config) Path() string {
	return c.path
}

// AssetPath returns Asset resolved against the scene file's directory.
func (c *Config) AssetPath() string {
	if c.Asset == "" || filepath.IsAbs(c.Asset) || c.path == "" {
		return c.Asset
	}
	return filepath.Join(filepath.Dir(c.path), c.Asset)
}

// Plane returns the reference plane through PlanePoint with normal PlaneNormal.
func (c *Config) Plane() common.Plane {
	return common.NewPlane(c.Gaze.PlaneNormal, c.Gaze.PlanePoint)
}

// Axis returns the parsed forward axis. Call Validate first; invalid values map to ForwardNegZ.
func (c *Config) Axis() gaze.ForwardAxis {
	axis, _ := gaze.ParseForwardAxis(c.Gaze.ForwardAxis)
	return axis
}

// FovRadians returns the camera's vertical field of view in radians.
func (c *Config) FovRadians() float32 {
	return c.Camera.Fov * math.Pi / 180
}

func finite3(v [3]float32) bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}
