package cubetracker

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
)

var TrackerModel = family.WithModel("tracker")

func init() {
	resource.RegisterService(generic.API, TrackerModel,
		resource.Registration[resource.Resource, *TrackerConfig]{
			Constructor: newCubeTracker,
		},
	)
}

type TrackerConfig struct {
	Camera string      `json:"camera"`
	Board  BoardConfig `json:"board"`

	// TrackGame follows a chess game through the detected moves.
	TrackGame bool `json:"track_game"`
}

func (cfg *TrackerConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Camera == "" {
		return nil, nil, fmt.Errorf("need a camera")
	}
	if err := cfg.Board.WithDefaults().Validate(); err != nil {
		return nil, nil, err
	}
	return []string{cfg.Camera}, nil, nil
}

type cubeTracker struct {
	resource.AlwaysRebuild

	name resource.Name

	logger logging.Logger
	conf   *TrackerConfig

	cancelCtx  context.Context
	cancelFunc func()

	analyzer *Analyzer
	game     *GameTracker
}

func newCubeTracker(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*TrackerConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewTracker(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewTracker(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *TrackerConfig, logger logging.Logger) (resource.Resource, error) {
	cam, err := camera.FromProvider(deps, conf.Camera)
	if err != nil {
		return nil, err
	}

	return newTrackerFromSource(ctx, name, NewCameraFrameSource(cam), conf, logger)
}

func newTrackerFromSource(ctx context.Context, name resource.Name, src FrameSource, conf *TrackerConfig, logger logging.Logger) (*cubeTracker, error) {
	cancelCtx, cancelFunc := context.WithCancel(context.Background())

	s := &cubeTracker{
		name:       name,
		logger:     logger,
		conf:       conf,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}

	var err error
	s.analyzer, err = NewAnalyzer(src, &conf.Board, logger)
	if err != nil {
		cancelFunc()
		return nil, err
	}

	if conf.TrackGame {
		c := s.analyzer.Extractor().Config()
		s.game = NewGameTracker(c.WhiteColor, c.BlackColor)
	}

	if err := s.analyzer.Start(ctx); err != nil {
		cancelFunc()
		return nil, err
	}

	return s, nil
}

func (s *cubeTracker) Name() resource.Name {
	return s.name
}

// ----

type trackerCmd struct {
	Initial   bool
	Update    bool
	Compare   bool
	State     bool
	Pose      string
	ResetGame *string `mapstructure:"reset-game"`
}

func (s *cubeTracker) DoCommand(ctx context.Context, cmdMap map[string]interface{}) (map[string]interface{}, error) {
	var cmd trackerCmd
	err := mapstructure.Decode(cmdMap, &cmd)
	if err != nil {
		return nil, err
	}

	switch {
	case cmd.Initial:
		out, err := s.analyzer.CaptureInitial(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"result": string(out)}, nil

	case cmd.Update:
		out, err := s.analyzer.CaptureUpdated(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"result": string(out)}, nil

	case cmd.Compare:
		return s.compare(ctx)

	case cmd.State:
		initial, updated := s.analyzer.Positions()
		res := map[string]interface{}{
			"initial":  stateMap(initial),
			"updated":  stateMap(updated),
			"obstacle": s.analyzer.ObstaclePresent(),
		}
		if s.game != nil {
			res["fen"] = s.game.FEN()
			res["outcome"] = s.game.Outcome()
			if m := s.game.Mismatches(initial); len(m) > 0 {
				res["mismatches"] = toInterfaces(m)
			}
		}
		return res, nil

	case cmd.Pose != "":
		return s.pose(cmd.Pose)

	case cmd.ResetGame != nil:
		if s.game == nil {
			return nil, fmt.Errorf("game tracking not enabled")
		}
		if err := s.game.Reset(*cmd.ResetGame); err != nil {
			return nil, err
		}
		return map[string]interface{}{"fen": s.game.FEN()}, nil
	}

	return nil, fmt.Errorf("bad cmd %v", cmdMap)
}

func (s *cubeTracker) compare(ctx context.Context) (map[string]interface{}, error) {
	c, err := s.analyzer.Compare(ctx)
	if err != nil {
		return nil, err
	}

	res := map[string]interface{}{
		"result": c.String(),
		"tokens": toInterfaces(c.Tokens()),
	}

	if s.game != nil && c.Outcome == OutcomeMovement {
		move, err := s.game.ApplyEvents(c.Events)
		if err != nil {
			s.logger.Warnf("cannot follow game: %v", err)
			res["game_error"] = err.Error()
		} else {
			s.logger.Infof("game move %s", move)
			res["move"] = move
			res["fen"] = s.game.FEN()
		}
	}
	return res, nil
}

func (s *cubeTracker) pose(square string) (map[string]interface{}, error) {
	cfg := s.analyzer.Extractor().Config()
	if cfg.Arm == nil {
		return nil, fmt.Errorf("no arm configured")
	}

	g := cfg.Grid()
	label, err := ParseSquareLabel(square, g)
	if err != nil {
		return nil, err
	}
	p, err := cfg.Arm.SquarePoses(label, g)
	if err != nil {
		return nil, err
	}

	vec := func(x, y, z float64) map[string]interface{} {
		return map[string]interface{}{"x": x, "y": y, "z": z}
	}
	return map[string]interface{}{
		"square": label.String(),
		"hover":  vec(p.Hover.X, p.Hover.Y, p.Hover.Z),
		"pickup": vec(p.Pickup.X, p.Pickup.Y, p.Pickup.Z),
		"place":  vec(p.Place.X, p.Place.Y, p.Place.Z),
	}, nil
}

func (s *cubeTracker) Close(context.Context) error {
	s.cancelFunc()
	return s.analyzer.Close()
}

func stateMap(bs BoardState) map[string]interface{} {
	m := map[string]interface{}{}
	for l, o := range bs {
		m[l.String()] = o.String()
	}
	return m
}

func toInterfaces(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
