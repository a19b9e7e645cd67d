// Package config provides configuration loading and access for the camera rig.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/lens"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all camera rig configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Lens       LensConfig       `yaml:"lens"`
	Geometry   GeometryConfig   `yaml:"geometry"`
	Distance   DistanceConfig   `yaml:"distance"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Controller ControllerConfig `yaml:"controller"`
	EyeLevel   EyeLevelConfig   `yaml:"eye_level"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Scene      SceneConfig      `yaml:"scene"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// LensConfig describes the lens model. Angles are in degrees.
type LensConfig struct {
	SensorWidth float64 `yaml:"sensor_width"` // mm, 36 for full frame
	FocalMin    float64 `yaml:"focal_min"`
	FocalMax    float64 `yaml:"focal_max"`
	SliderMin   float64 `yaml:"slider_min"`
	SliderMax   float64 `yaml:"slider_max"`
	FOVMin      float64 `yaml:"fov_min"`
	FOVMax      float64 `yaml:"fov_max"`
	DefaultFOV  float64 `yaml:"default_fov"`
}

// GeometryConfig holds the world orientation.
type GeometryConfig struct {
	WorldUp [3]float64 `yaml:"world_up"`
}

// DistanceConfig controls how distance bounds follow the scene size.
type DistanceConfig struct {
	Multiplier  float64 `yaml:"multiplier"`
	MinFloor    float64 `yaml:"min_floor"`
	FallbackMin float64 `yaml:"fallback_min"`
	FallbackMax float64 `yaml:"fallback_max"`
}

// PipelineConfig holds commit pipeline parameters.
type PipelineConfig struct {
	CoalesceMS int `yaml:"coalesce_ms"` // staging window measured from the first edit
}

// ControllerConfig holds controller parameters.
type ControllerConfig struct {
	ThrottleMS int `yaml:"throttle_ms"` // minimum interval between UI snapshots
}

// EyeLevelConfig holds passive correction and snap animation parameters.
type EyeLevelConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	SettleMS  int     `yaml:"settle_ms"`
	SnapMS    int     `yaml:"snap_ms"` // 0 jumps without easing
}

// TelemetryConfig holds CSV output parameters.
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled"`
	StatsWindowSec float64 `yaml:"stats_window"` // commit stats summary interval
}

// SceneConfig describes the simulated scene and its starting camera.
type SceneConfig struct {
	Min        [3]float64 `yaml:"min"`
	Max        [3]float64 `yaml:"max"`
	Eye        [3]float64 `yaml:"eye"`
	Target     [3]float64 `yaml:"target"`
	FOV        float64    `yaml:"fov"` // degrees
	Projection string     `yaml:"projection"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Lens          lens.Model
	WorldUp       r3.Vec
	Bounds        camera.BoundsRule
	Coalesce      time.Duration
	Throttle      time.Duration
	Settle        time.Duration
	Snap          time.Duration
	StatsWindow   time.Duration
	SceneBox      r3.Box
	InitialCamera camera.State
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	l := c.Lens
	c.Derived.Lens = lens.Model{
		SensorWidth: l.SensorWidth,
		FocalMin:    l.FocalMin,
		FocalMax:    l.FocalMax,
		SliderMin:   l.SliderMin,
		SliderMax:   l.SliderMax,
		FOVMin:      lens.Radians(l.FOVMin),
		FOVMax:      lens.Radians(l.FOVMax),
		DefaultFOV:  lens.Radians(l.DefaultFOV),
	}
	if err := c.Derived.Lens.Validate(); err != nil {
		return fmt.Errorf("lens: %w", err)
	}

	c.Derived.WorldUp = vec(c.Geometry.WorldUp)
	if r3.Norm(c.Derived.WorldUp) == 0 {
		return fmt.Errorf("geometry: world_up must be non-zero")
	}

	c.Derived.Bounds = camera.BoundsRule{
		Multiplier:  c.Distance.Multiplier,
		MinFloor:    c.Distance.MinFloor,
		FallbackMin: c.Distance.FallbackMin,
		FallbackMax: c.Distance.FallbackMax,
	}

	c.Derived.Coalesce = ms(c.Pipeline.CoalesceMS)
	c.Derived.Throttle = ms(c.Controller.ThrottleMS)
	c.Derived.Settle = ms(c.EyeLevel.SettleMS)
	c.Derived.Snap = ms(c.EyeLevel.SnapMS)
	c.Derived.StatsWindow = time.Duration(c.Telemetry.StatsWindowSec * float64(time.Second))

	c.Derived.SceneBox = r3.Box{Min: vec(c.Scene.Min), Max: vec(c.Scene.Max)}

	var proj camera.Projection
	if c.Scene.Projection != "" {
		if err := proj.UnmarshalText([]byte(c.Scene.Projection)); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
	}
	c.Derived.InitialCamera = camera.State{
		Eye:        vec(c.Scene.Eye),
		Target:     vec(c.Scene.Target),
		Up:         r3.Unit(c.Derived.WorldUp),
		FOV:        c.Derived.Lens.ClampFOV(lens.Radians(c.Scene.FOV)),
		Projection: proj,
	}
	level, err := c.Derived.InitialCamera.Level()
	if err == nil {
		err = level.Validate()
	}
	if err != nil {
		return fmt.Errorf("scene camera: %w", err)
	}
	c.Derived.InitialCamera = level
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
