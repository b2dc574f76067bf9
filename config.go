package cubetracker

import (
	"fmt"
	"image"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	defaultGridSize          = 8
	defaultWarpedSize        = 800
	defaultRotationAngle     = -90.0
	defaultSaturationBoost   = 50
	defaultDiffThreshold     = 20
	defaultChangeRatio       = 0.02
	defaultRebaselineFrames  = 30
	defaultObstacleInterval  = time.Second
	defaultCubeAreaMin       = 500
	defaultCubeSideMin       = 15
	defaultWhiteColor        = "blue"
	defaultBlackColor        = "brown"
	defaultObstacleBlurSigma = 1.1
)

// ChannelRange is an inclusive per-channel interval in the configured color space.
type ChannelRange struct {
	Lower [3]uint8 `json:"lower" yaml:"lower"`
	Upper [3]uint8 `json:"upper" yaml:"upper"`
}

// ColorRange is a named cube color made of one or more channel ranges.
type ColorRange struct {
	Name   string         `json:"name" yaml:"name"`
	Ranges []ChannelRange `json:"ranges" yaml:"ranges"`
}

// Thresholds filter detected blobs.
type Thresholds struct {
	MinArea   int `json:"cube_area_min" yaml:"cube_area_min"`
	MinWidth  int `json:"cube_width_min" yaml:"cube_width_min"`
	MinHeight int `json:"cube_height_min" yaml:"cube_height_min"`
}

// ObstacleConfig tunes the obstacle monitor.
type ObstacleConfig struct {
	DiffThreshold    *int     `json:"diff_threshold,omitempty" yaml:"diff_threshold,omitempty"`
	ChangeRatio      *float64 `json:"change_ratio,omitempty" yaml:"change_ratio,omitempty"`
	RebaselineFrames int      `json:"rebaseline_frames,omitempty" yaml:"rebaseline_frames,omitempty"`
	Interval         string   `json:"interval,omitempty" yaml:"interval,omitempty"` // duration string like "1s"
}

// BoardConfig is everything the vision pipeline and the session need.
// Sizes are [width, height] / [cols, rows] as in the settings file.
type BoardConfig struct {
	ChessboardPoints        [][2]int `json:"chessboard_points" yaml:"chessboard_points"`
	ObstacleDetectionPoints [][2]int `json:"obstacle_detection_points,omitempty" yaml:"obstacle_detection_points,omitempty"`

	ChessboardSize  [2]int   `json:"chessboard_size,omitempty" yaml:"chessboard_size,omitempty"`
	WarpedSize      [2]int   `json:"warped_size,omitempty" yaml:"warped_size,omitempty"`
	RotationAngle   *float64 `json:"rotation_angle,omitempty" yaml:"rotation_angle,omitempty"`
	SaturationBoost *int     `json:"saturation_boost,omitempty" yaml:"saturation_boost,omitempty"`

	ColorSpace    ColorSpace   `json:"color_space,omitempty" yaml:"color_space,omitempty"`
	CubeDetection []ColorRange `json:"cube_detection,omitempty" yaml:"cube_detection,omitempty"`
	Thresholds    Thresholds   `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	Obstacle     ObstacleConfig `json:"obstacle,omitempty" yaml:"obstacle,omitempty"`
	WarmupFrames int            `json:"warmup_frames,omitempty" yaml:"warmup_frames,omitempty"`

	WhiteColor string     `json:"white_color,omitempty" yaml:"white_color,omitempty"`
	BlackColor string     `json:"black_color,omitempty" yaml:"black_color,omitempty"`
	Arm        *ArmConfig `json:"arm,omitempty" yaml:"arm,omitempty"`
}

// DefaultColorRanges are BGR ranges for the blue and brown cubes.
func DefaultColorRanges() []ColorRange {
	return []ColorRange{
		{
			Name: "blue",
			Ranges: []ChannelRange{
				{Lower: [3]uint8{100, 0, 0}, Upper: [3]uint8{255, 130, 80}},
			},
		},
		{
			Name: "brown",
			Ranges: []ChannelRange{
				{Lower: [3]uint8{0, 30, 80}, Upper: [3]uint8{90, 140, 230}},
				{Lower: [3]uint8{0, 0, 60}, Upper: [3]uint8{50, 70, 140}},
			},
		},
	}
}

// LoadConfigFile reads a YAML (or JSON) settings file and fills in defaults.
func LoadConfigFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &BoardConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithDefaults returns a copy with every unset field given its default.
func (cfg *BoardConfig) WithDefaults() *BoardConfig {
	c := *cfg

	if c.ChessboardSize[0] == 0 && c.ChessboardSize[1] == 0 {
		c.ChessboardSize = [2]int{defaultGridSize, defaultGridSize}
	}
	if c.WarpedSize[0] == 0 && c.WarpedSize[1] == 0 {
		c.WarpedSize = [2]int{defaultWarpedSize, defaultWarpedSize}
	}
	if c.RotationAngle == nil {
		a := defaultRotationAngle
		c.RotationAngle = &a
	}
	if c.SaturationBoost == nil {
		b := defaultSaturationBoost
		c.SaturationBoost = &b
	}
	if c.ColorSpace == "" {
		c.ColorSpace = ColorSpaceBGR
	}
	if len(c.CubeDetection) == 0 {
		c.CubeDetection = DefaultColorRanges()
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = Thresholds{
			MinArea:   defaultCubeAreaMin,
			MinWidth:  defaultCubeSideMin,
			MinHeight: defaultCubeSideMin,
		}
	}
	if len(c.ObstacleDetectionPoints) == 0 {
		c.ObstacleDetectionPoints = c.ChessboardPoints
	}
	if c.Obstacle.DiffThreshold == nil {
		d := defaultDiffThreshold
		c.Obstacle.DiffThreshold = &d
	}
	if c.Obstacle.ChangeRatio == nil {
		r := defaultChangeRatio
		c.Obstacle.ChangeRatio = &r
	}
	if c.Obstacle.RebaselineFrames == 0 {
		c.Obstacle.RebaselineFrames = defaultRebaselineFrames
	}
	if c.WhiteColor == "" {
		c.WhiteColor = defaultWhiteColor
	}
	if c.BlackColor == "" {
		c.BlackColor = defaultBlackColor
	}
	return &c
}

// Validate checks the config after defaults have been applied.
func (cfg *BoardConfig) Validate() error {
	var err error

	if len(cfg.ChessboardPoints) != 4 {
		err = multierr.Append(err, fmt.Errorf("chessboard_points needs 4 points, got %d: %w", len(cfg.ChessboardPoints), ErrInvalidInput))
	}
	if n := len(cfg.ObstacleDetectionPoints); n != 0 && n != 4 {
		err = multierr.Append(err, fmt.Errorf("obstacle_detection_points needs 4 points, got %d: %w", n, ErrInvalidInput))
	}
	if cfg.ChessboardSize[0] <= 0 || cfg.ChessboardSize[1] <= 0 || cfg.ChessboardSize[0] > 26 {
		err = multierr.Append(err, fmt.Errorf("bad chessboard_size %v", cfg.ChessboardSize))
	}
	if cfg.WarpedSize[0] <= 0 || cfg.WarpedSize[1] <= 0 {
		err = multierr.Append(err, fmt.Errorf("bad warped_size %v", cfg.WarpedSize))
	}
	if cfg.ColorSpace != "" && cfg.ColorSpace != ColorSpaceBGR && cfg.ColorSpace != ColorSpaceHSV {
		err = multierr.Append(err, fmt.Errorf("unknown color_space %q", cfg.ColorSpace))
	}
	for _, cr := range cfg.CubeDetection {
		err = multierr.Append(err, cr.Validate())
	}
	if r := cfg.Obstacle.changeRatio(); r < 0 || r > 1 {
		err = multierr.Append(err, fmt.Errorf("obstacle change_ratio %v not in [0, 1]", r))
	}
	if d := cfg.Obstacle.diffThreshold(); d < 0 || d > 255 {
		err = multierr.Append(err, fmt.Errorf("obstacle diff_threshold %d not in [0, 255]", d))
	}
	if cfg.Obstacle.Interval != "" {
		if _, perr := time.ParseDuration(cfg.Obstacle.Interval); perr != nil {
			err = multierr.Append(err, fmt.Errorf("bad obstacle interval: %w", perr))
		}
	}
	if cfg.Arm != nil {
		err = multierr.Append(err, cfg.Arm.Validate())
	}

	return err
}

// Validate checks that every range has lower <= upper on each channel.
func (cr ColorRange) Validate() error {
	if cr.Name == "" {
		return fmt.Errorf("color range without a name: %w", ErrInvalidInput)
	}
	if len(cr.Ranges) == 0 {
		return fmt.Errorf("color %q has no ranges: %w", cr.Name, ErrInvalidInput)
	}
	for i, r := range cr.Ranges {
		for ch := range 3 {
			if r.Lower[ch] > r.Upper[ch] {
				return fmt.Errorf("color %q range %d channel %d: lower %d > upper %d: %w",
					cr.Name, i, ch, r.Lower[ch], r.Upper[ch], ErrInvalidInput)
			}
		}
	}
	return nil
}

// Grid returns the configured grid size.
func (cfg *BoardConfig) Grid() GridSize {
	return GridSize{Rows: cfg.ChessboardSize[1], Cols: cfg.ChessboardSize[0]}
}

func (cfg *BoardConfig) warpSize() image.Point {
	return image.Pt(cfg.WarpedSize[0], cfg.WarpedSize[1])
}

func (cfg *BoardConfig) rotation() float64 {
	if cfg.RotationAngle == nil {
		return defaultRotationAngle
	}
	return *cfg.RotationAngle
}

func (cfg *BoardConfig) saturationBoost() int {
	if cfg.SaturationBoost == nil {
		return defaultSaturationBoost
	}
	return *cfg.SaturationBoost
}

func (oc ObstacleConfig) diffThreshold() int {
	if oc.DiffThreshold == nil {
		return defaultDiffThreshold
	}
	return *oc.DiffThreshold
}

func (oc ObstacleConfig) changeRatio() float64 {
	if oc.ChangeRatio == nil {
		return defaultChangeRatio
	}
	return *oc.ChangeRatio
}

func (cfg *BoardConfig) obstacleInterval() time.Duration {
	if cfg.Obstacle.Interval == "" {
		return defaultObstacleInterval
	}
	d, err := time.ParseDuration(cfg.Obstacle.Interval)
	if err != nil || d <= 0 {
		return defaultObstacleInterval
	}
	return d
}

func toPoints(pts [][2]int) []image.Point {
	out := make([]image.Point, 0, len(pts))
	for _, p := range pts {
		out = append(out, image.Pt(p[0], p[1]))
	}
	return out
}
