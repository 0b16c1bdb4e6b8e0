package config

import (
	"encoding/json"
	"fmt"
	"os"

	"zappem.net/pub/math/geom"

	"zappem.net/pub/kinematics/fabrik"
	"zappem.net/pub/kinematics/fabrik/internal/logging"
	"zappem.net/pub/kinematics/fabrik/render"
	"zappem.net/pub/kinematics/fabrik/view"
)

// Config holds the chain, camera and driver settings.
type Config struct {
	// Chain
	Preset        string      `json:"preset"`
	Joints        int         `json:"joints"`
	Segment       float64     `json:"segment_length"`
	Tolerance     float64     `json:"tolerance"`
	MaxIterations int         `json:"max_iterations"`
	Target        *[3]float64 `json:"target"`

	// Camera
	Yaw    *float64 `json:"yaw_deg"`
	Pitch  *float64 `json:"pitch_deg"`
	Extent float64  `json:"extent"`

	// Drivers
	FPS         int    `json:"fps"`
	Size        int    `json:"size"`
	Supersample int    `json:"supersample"`
	Backdrop    string `json:"backdrop"`
	LogLevel    string `json:"log_level"`
	LogFile     string `json:"log_file"`
}

// Flags holds command line overrides. Zero values leave the config
// untouched.
type Flags struct {
	Preset   string
	Joints   int
	Segment  float64
	Size     int
	LogLevel string
	LogFile  string
}

// Preset is a named chain variant.
type Preset struct {
	Joints  int
	Segment float64
	Target  [3]float64
}

// Presets are the chain variants known by name.
var Presets = map[string]Preset{
	"snake": {Joints: 24, Segment: 0.35, Target: [3]float64{5, 5, 0}},
	"arm":   {Joints: 4, Segment: 1.25, Target: [3]float64{2, 2, 0}},
}

// Defaults used by Resolve.
const (
	DefaultPreset        = "snake"
	DefaultTolerance     = 0.05
	DefaultMaxIterations = 20
	DefaultYaw           = 30
	DefaultPitch         = -20
	DefaultExtent        = 10
	DefaultFPS           = 60
	DefaultSize          = 512
	DefaultSupersample   = 2
	DefaultLogLevel      = "info"
)

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve applies flag overrides and fills any empty fields from the
// preset and package defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Preset != "" {
		c.Preset = flags.Preset
	}
	if flags.Joints > 0 {
		c.Joints = flags.Joints
	}
	if flags.Segment > 0 {
		c.Segment = flags.Segment
	}
	if flags.Size > 0 {
		c.Size = flags.Size
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.LogFile != "" {
		c.LogFile = flags.LogFile
	}

	if c.Preset == "" {
		c.Preset = DefaultPreset
	}
	if p, ok := Presets[c.Preset]; ok {
		if c.Joints == 0 {
			c.Joints = p.Joints
		}
		if c.Segment == 0 {
			c.Segment = p.Segment
		}
		if c.Target == nil {
			t := p.Target
			c.Target = &t
		}
	}
	if c.Target == nil {
		c.Target = &[3]float64{}
	}
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Yaw == nil {
		yaw := float64(DefaultYaw)
		c.Yaw = &yaw
	}
	if c.Pitch == nil {
		pitch := float64(DefaultPitch)
		c.Pitch = &pitch
	}
	if c.Extent == 0 {
		c.Extent = DefaultExtent
	}
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.Size == 0 {
		c.Size = DefaultSize
	}
	if c.Supersample == 0 {
		c.Supersample = DefaultSupersample
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate reports the first setting that cannot be used. It expects
// a resolved config.
func (c Config) Validate() error {
	if _, ok := Presets[c.Preset]; !ok {
		return fmt.Errorf("config: unknown preset %q", c.Preset)
	}
	if _, err := fabrik.NewChain(c.Params()); err != nil {
		return fmt.Errorf("config: chain: %w", err)
	}
	if !(c.Extent > 0) {
		return fmt.Errorf("config: extent must be positive, got %v", c.Extent)
	}
	if c.FPS <= 0 || c.Size <= 0 || c.Supersample <= 0 {
		return fmt.Errorf("config: fps, size and supersample must be positive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Params returns the chain construction parameters.
func (c Config) Params() fabrik.Params {
	return fabrik.Params{
		Joints:        c.Joints,
		Segment:       c.Segment,
		Tolerance:     c.Tolerance,
		MaxIterations: c.MaxIterations,
	}
}

// TargetV returns the initial target position.
func (c Config) TargetV() geom.Vector {
	if c.Target == nil {
		return geom.V(0, 0, 0)
	}
	return geom.V(c.Target[0], c.Target[1], c.Target[2])
}

// View returns the camera shared by rendering and pointer input.
func (c Config) View() view.View {
	var yaw, pitch float64
	if c.Yaw != nil {
		yaw = *c.Yaw
	}
	if c.Pitch != nil {
		pitch = *c.Pitch
	}
	return view.Square(geom.Degrees(yaw), geom.Degrees(pitch), c.Extent)
}

// Style returns the raster style for frames of Size pixels square,
// loading the backdrop image if one is configured.
func (c Config) Style() (render.Style, error) {
	st := render.DefaultStyle()
	st.Width, st.Height = c.Size, c.Size
	st.Supersample = c.Supersample
	if c.Backdrop != "" {
		img, err := render.LoadBackdrop(c.Backdrop)
		if err != nil {
			return st, fmt.Errorf("config: backdrop: %w", err)
		}
		st.Backdrop = img
	}
	return st, nil
}
