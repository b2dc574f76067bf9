package cubetracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.viam.com/rdk/logging"
	"go.viam.com/utils"
)

// Outcome is the non-error result of a session call. The strings are what
// callers of the old analyzer matched on.
type Outcome string

const (
	OutcomeInitialCaptured  Outcome = "initial capture completed"
	OutcomeUpdateCaptured   Outcome = "update capture completed"
	OutcomeObstacleDetected Outcome = "obstacle detected"
	OutcomeNoCubesDetected  Outcome = "no cubes detected"
	OutcomeInitialNotSet    Outcome = "initial positions not set"
	OutcomeUpdatedNotSet    Outcome = "updated positions not set"
	OutcomeMovement         Outcome = "movement detected"
	OutcomeNoMovement       Outcome = "No movement detected"
)

// Comparison is what Compare found.
type Comparison struct {
	Outcome Outcome
	Events  []MoveEvent
}

// Tokens returns the move tokens, empty unless Outcome is OutcomeMovement.
func (c *Comparison) Tokens() []string {
	return Tokens(c.Events)
}

// String is the token list joined by ", ", or the outcome when nothing moved.
func (c *Comparison) String() string {
	if c.Outcome == OutcomeMovement {
		return strings.Join(c.Tokens(), ", ")
	}
	return string(c.Outcome)
}

// sessionState is shared by the obstacle loop and the capture calls.
// mu also serializes frame reads.
type sessionState struct {
	mu       sync.Mutex
	obstacle bool
	initial  BoardState
	updated  BoardState
}

// Analyzer runs the capture / update / compare protocol over one camera.
type Analyzer struct {
	src       FrameSource
	cfg       *BoardConfig
	extractor *Extractor
	monitor   *ObstacleMonitor
	logger    logging.Logger

	state *sessionState

	workersMu sync.Mutex
	workers   *utils.StoppableWorkers
}

// NewAnalyzer builds the pipeline. Call Start to begin obstacle monitoring.
func NewAnalyzer(src FrameSource, cfg *BoardConfig, logger logging.Logger) (*Analyzer, error) {
	if src == nil {
		return nil, errors.New("need a frame source")
	}

	extractor, err := NewExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}
	c := extractor.Config()

	monitor, err := NewObstacleMonitor(toPoints(c.ObstacleDetectionPoints), c.Obstacle, logger)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		src:       src,
		cfg:       c,
		extractor: extractor,
		monitor:   monitor,
		logger:    logger,
		state:     &sessionState{},
	}, nil
}

// Start warms the camera up, takes the obstacle reference frame and launches
// the background obstacle loop. It may only be called once.
func (a *Analyzer) Start(ctx context.Context) error {
	a.workersMu.Lock()
	defer a.workersMu.Unlock()
	if a.workers != nil {
		return errors.New("analyzer already started")
	}

	a.state.mu.Lock()
	for i := 0; i < a.cfg.WarmupFrames; i++ {
		if _, err := a.src.ReadFrame(ctx); err != nil {
			a.logger.Warnf("failed to read frame during camera warm up: %v", err)
		}
	}
	frame, err := a.src.ReadFrame(ctx)
	if err == nil {
		err = a.monitor.Initialize(frame)
	}
	a.state.mu.Unlock()
	if err != nil {
		return fmt.Errorf("cannot take obstacle reference frame: %w: %w", ErrCaptureFailure, err)
	}

	a.workers = utils.NewBackgroundStoppableWorkers(a.obstacleLoop)
	return nil
}

// obstacleLoop checks for obstacles about once per interval, sleeping only
// what is left of the interval after each check. Start has just taken the
// reference, so the first check waits a full interval.
func (a *Analyzer) obstacleLoop(ctx context.Context) {
	interval := a.cfg.obstacleInterval()
	a.logger.Infof("starting obstacle detection every %v", interval)
	wait := interval
	for {
		if !utils.SelectContextOrWait(ctx, wait) {
			return
		}
		start := time.Now()
		if _, err := a.CheckObstacle(ctx); err != nil && ctx.Err() == nil {
			a.logger.Errorf("obstacle check failed: %v", err)
		}
		wait = interval - time.Since(start)
	}
}

// CheckObstacle reads a frame, runs the obstacle monitor on it and caches the result.
// On failure the cached flag is left alone.
func (a *Analyzer) CheckObstacle(ctx context.Context) (bool, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	frame, err := a.src.ReadFrame(ctx)
	if err != nil {
		return a.state.obstacle, fmt.Errorf("%w: %w", ErrCaptureFailure, err)
	}

	present, err := a.monitor.CheckFrame(frame)
	if errors.Is(err, ErrNotInitialized) {
		return false, a.monitor.Initialize(frame)
	}
	if err != nil {
		return a.state.obstacle, err
	}

	if present && !a.state.obstacle {
		a.logger.Warnf("obstacle detected")
	} else if !present && a.state.obstacle {
		a.logger.Infof("obstacle cleared")
	}
	a.state.obstacle = present
	return present, nil
}

// ObstaclePresent returns the last cached obstacle result.
func (a *Analyzer) ObstaclePresent() bool {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	return a.state.obstacle
}

// CaptureInitial stores the current board as the reference state.
func (a *Analyzer) CaptureInitial(ctx context.Context) (Outcome, error) {
	return a.capture(ctx, "initial", func(s BoardState) { a.state.initial = s }, OutcomeInitialCaptured)
}

// CaptureUpdated stores the current board as the state to compare against.
func (a *Analyzer) CaptureUpdated(ctx context.Context) (Outcome, error) {
	return a.capture(ctx, "update", func(s BoardState) { a.state.updated = s }, OutcomeUpdateCaptured)
}

func (a *Analyzer) capture(ctx context.Context, what string, store func(BoardState), done Outcome) (Outcome, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if a.state.obstacle {
		a.logger.Warnf("cannot perform %s capture: obstacle detected", what)
		return OutcomeObstacleDetected, nil
	}

	frame, err := a.src.ReadFrame(ctx)
	if err != nil {
		return "", fmt.Errorf("%s capture: %w: %w", what, ErrCaptureFailure, err)
	}

	ext, err := a.extractor.Extract(ctx, frame)
	if err != nil {
		return "", fmt.Errorf("%s capture: %w", what, err)
	}
	if len(ext.State) == 0 {
		a.logger.Infof("no cubes detected during %s capture", what)
		return OutcomeNoCubesDetected, nil
	}

	store(ext.State)
	a.logger.Infof("%s cube positions captured: %v", what, ext.State.Strings())
	return done, nil
}

// Compare diffs the initial and updated states. On success the updated
// state becomes the new initial state and the updated state is cleared.
func (a *Analyzer) Compare(ctx context.Context) (*Comparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if a.state.obstacle {
		a.logger.Warnf("cannot compare moves: obstacle detected")
		return &Comparison{Outcome: OutcomeObstacleDetected}, nil
	}
	if len(a.state.initial) == 0 {
		a.logger.Warnf("initial positions not set, capture the initial state first")
		return &Comparison{Outcome: OutcomeInitialNotSet}, nil
	}
	if len(a.state.updated) == 0 {
		a.logger.Warnf("updated positions not set, capture an update first")
		return &Comparison{Outcome: OutcomeUpdatedNotSet}, nil
	}

	events, err := CompareBoards(a.state.initial, a.state.updated)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		a.logger.Infof("%v", e)
	}

	a.state.initial = a.state.updated.Clone()
	a.state.updated = nil

	if len(events) == 0 {
		return &Comparison{Outcome: OutcomeNoMovement}, nil
	}
	return &Comparison{Outcome: OutcomeMovement, Events: events}, nil
}

// Positions returns copies of the initial and updated states.
func (a *Analyzer) Positions() (BoardState, BoardState) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	return a.state.initial.Clone(), a.state.updated.Clone()
}

// Extractor exposes the analyzer's pipeline.
func (a *Analyzer) Extractor() *Extractor {
	return a.extractor
}

// Close stops the obstacle loop.
func (a *Analyzer) Close() error {
	a.workersMu.Lock()
	defer a.workersMu.Unlock()
	if a.workers != nil {
		a.workers.Stop()
	}
	return nil
}
