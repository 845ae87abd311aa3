package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-gaze/engine/gaze"
)

const faceYAML = `
window:
  title: Face
  width: 800
  height: 600
camera:
  position: [0, 2, 5]
  target: [0, 0, 0]
  fov: 60
gaze:
  plane_normal: [0, 0, 2]
  plane_point: [0, 0, 1]
  smoothing: 0.25
  forward_axis: "+z"
  eyes: [EyeL, EyeR]
render:
  clear_color: [0.2, 0.2, 0.2, 1]
  present_mode: uncapped
asset: models/face.gltf
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "face.yaml", faceYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Window.Title != "Face" || cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("Window\nhave %+v\nwant {Face 800 600}", cfg.Window)
	}
	if cfg.Camera.Fov != 60 || cfg.Camera.Near != DefaultNear || cfg.Camera.Far != DefaultFar {
		t.Errorf("Camera\nhave %+v\nwant fov 60 with default near/far", cfg.Camera)
	}
	if cfg.Axis() != gaze.ForwardPosZ {
		t.Errorf("Axis\nhave %v\nwant +z", cfg.Axis())
	}
	if len(cfg.Gaze.Eyes) != 2 || cfg.Gaze.Eyes[0] != "EyeL" {
		t.Errorf("Eyes\nhave %v\nwant [EyeL EyeR]", cfg.Gaze.Eyes)
	}
	if cfg.Render.TickRate != DefaultTickRate {
		t.Errorf("TickRate\nhave %v\nwant %v", cfg.Render.TickRate, DefaultTickRate)
	}

	plane := cfg.Plane()
	if plane.Normal != [3]float32{0, 0, 1} || plane.Distance != -1 {
		t.Errorf("Plane\nhave %+v\nwant normal (0,0,1) distance -1", plane)
	}

	want := filepath.Join(dir, "models", "face.gltf")
	if got := cfg.AssetPath(); got != want {
		t.Errorf("AssetPath\nhave %q\nwant %q", got, want)
	}
	if cfg.Path() != path {
		t.Errorf("Path\nhave %q\nwant %q", cfg.Path(), path)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("asset: face.glb\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Window.Width != DefaultWidth || cfg.Window.Title != DefaultTitle {
		t.Errorf("Window\nhave %+v\nwant defaults", cfg.Window)
	}
	if cfg.Camera.Position != DefaultPosition {
		t.Errorf("Camera.Position\nhave %v\nwant %v", cfg.Camera.Position, DefaultPosition)
	}
	if cfg.Gaze.Smoothing != DefaultSmoothing || cfg.Gaze.PlaneNormal != DefaultPlaneNormal {
		t.Errorf("Gaze\nhave %+v\nwant defaults", cfg.Gaze)
	}
	if cfg.Render.ClearColor != DefaultClearColor || cfg.Render.PresentMode != DefaultPresentMode {
		t.Errorf("Render\nhave %+v\nwant defaults", cfg.Render)
	}
	if cfg.AssetPath() != "face.glb" {
		t.Errorf("AssetPath without a file\nhave %q\nwant \"face.glb\"", cfg.AssetPath())
	}

	// Defaults are copied, not shared.
	cfg.Gaze.Eyes[0] = "changed"
	if DefaultEyes[0] != "LeftEye" {
		t.Errorf("DefaultEyes was modified through a config")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Window.Height != DefaultHeight {
		t.Errorf("Height\nhave %d\nwant %d", cfg.Window.Height, DefaultHeight)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("gaze:\n  smoothness: 0.5\n")); err == nil {
		t.Error("Parse accepted an unknown key")
	}
	if _, err := Parse([]byte("camera:\n  position: [1, 2]\n")); err == nil {
		t.Error("Parse accepted a two element position")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"window", func(c *Config) { c.Window.Width = -1 }, "window size"},
		{"fov", func(c *Config) { c.Camera.Fov = 180 }, "fov"},
		{"near far", func(c *Config) { c.Camera.Far = c.Camera.Near }, "near"},
		{"camera target", func(c *Config) { c.Camera.Target = c.Camera.Position }, "position and target"},
		{"plane normal", func(c *Config) { c.Gaze.PlaneNormal = [3]float32{} }, "plane normal"},
		{"smoothing zero", func(c *Config) { c.Gaze.Smoothing = -0.1 }, "smoothing"},
		{"smoothing above one", func(c *Config) { c.Gaze.Smoothing = 1.5 }, "smoothing"},
		{"forward axis", func(c *Config) { c.Gaze.ForwardAxis = "x" }, "forward_axis"},
		{"empty eye", func(c *Config) { c.Gaze.Eyes = []string{"LeftEye", " "} }, "eyes[1]"},
		{"asset", func(c *Config) { c.Asset = "face.obj" }, "asset"},
		{"clear color", func(c *Config) { c.Render.ClearColor[3] = 2 }, "clear_color"},
		{"present mode", func(c *Config) { c.Render.PresentMode = "mailbox" }, "present_mode"},
		{"tick rate", func(c *Config) { c.Render.TickRate = -5 }, "tick_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(faceYAML))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate\nhave %v\nwant %v", err, ErrInvalidConfig)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg, err := Parse([]byte(faceYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg.Gaze.Smoothing = 2
	cfg.Asset = ""
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "smoothing") || !strings.Contains(err.Error(), "asset") {
		t.Errorf("Validate\nhave %v\nwant smoothing and asset problems", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing)\nhave %v\nwant %v", err, os.ErrNotExist)
	}

	bad := writeFile(t, dir, "bad.yaml", "window: [\n")
	if _, err := Load(bad); err == nil {
		t.Error("Load accepted malformed YAML")
	}

	invalid := writeFile(t, dir, "invalid.yaml", "asset: face.gltf\ngaze:\n  smoothing: 3\n")
	if _, err := Load(invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load(invalid)\nhave %v\nwant %v", err, ErrInvalidConfig)
	}
}

func TestLoadExampleScene(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "examples", "assets", "face.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(cfg.AssetPath()); err != nil {
		t.Errorf("asset %q: %v", cfg.AssetPath(), err)
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := writeFile(t, t.TempDir(), "face.yaml", faceYAML)
	t.Setenv(EnvAsset, "other.glb")
	t.Setenv(EnvSmoothing, "0.5")
	t.Setenv(EnvPresentMode, "vsync")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Asset != "other.glb" || cfg.Gaze.Smoothing != 0.5 || cfg.Render.PresentMode != "vsync" {
		t.Errorf("overrides\nhave asset %q smoothing %v present %q\nwant other.glb 0.5 vsync",
			cfg.Asset, cfg.Gaze.Smoothing, cfg.Render.PresentMode)
	}

	t.Setenv(EnvSmoothing, "fast")
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load with unparsable smoothing\nhave %v\nwant %v", err, ErrInvalidConfig)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvScenePath, "")
	os.Unsetenv(EnvScenePath)

	envPath := writeFile(t, dir, ".env", EnvScenePath+"="+filepath.Join(dir, "face.yaml")+"\n")
	if err := LoadEnvFile(envPath); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got, want := ScenePath("fallback.yaml"), filepath.Join(dir, "face.yaml"); got != want {
		t.Errorf("ScenePath\nhave %q\nwant %q", got, want)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("LoadEnvFile accepted a missing file")
	}
}

func TestScenePathFallback(t *testing.T) {
	t.Setenv(EnvScenePath, "")
	if got := ScenePath("fallback.yaml"); got != "fallback.yaml" {
		t.Errorf("ScenePath\nhave %q\nwant \"fallback.yaml\"", got)
	}
}
