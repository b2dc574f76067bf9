package cubetracker

import (
	"context"
	"image"
	"image/color"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
	"go.viam.com/test"
)

func newTestTracker(t *testing.T, conf *TrackerConfig, frame image.Image) (*cubeTracker, *fakeSource) {
	t.Helper()
	src := &fakeSource{frame: frame}
	s, err := newTrackerFromSource(context.Background(), resource.NewName(generic.API, "tracker"), src, conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, s.Close(context.Background()), test.ShouldBeNil)
	})
	return s, src
}

func TestTrackerConfigValidate(t *testing.T) {
	cfg := &TrackerConfig{Board: *testBoardConfig()}
	_, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)

	cfg.Camera = "cam"
	deps, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"cam"})

	cfg.Board.ChessboardPoints = nil
	_, _, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTrackerDoCommand(t *testing.T) {
	ctx := context.Background()
	s, src := newTestTracker(t,
		&TrackerConfig{Camera: "cam", Board: *testBoardConfig()},
		boardFrame(map[image.Point]color.NRGBA{{4, 6}: testBlue}))

	res, err := s.DoCommand(ctx, map[string]interface{}{"compare": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["result"], test.ShouldEqual, "initial positions not set")

	res, err = s.DoCommand(ctx, map[string]interface{}{"initial": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["result"], test.ShouldEqual, "initial capture completed")

	// e2 -> e4
	src.set(boardFrame(map[image.Point]color.NRGBA{{4, 4}: testBlue}))

	res, err = s.DoCommand(ctx, map[string]interface{}{"update": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["result"], test.ShouldEqual, "update capture completed")

	res, err = s.DoCommand(ctx, map[string]interface{}{"compare": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["result"], test.ShouldEqual, "e2e4")
	test.That(t, res["tokens"], test.ShouldResemble, []interface{}{"e2e4"})
	_, hasMove := res["move"]
	test.That(t, hasMove, test.ShouldBeFalse)

	res, err = s.DoCommand(ctx, map[string]interface{}{"state": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["initial"], test.ShouldResemble, map[string]interface{}{"E4": "blue"})
	test.That(t, res["updated"], test.ShouldResemble, map[string]interface{}{})
	test.That(t, res["obstacle"], test.ShouldEqual, false)

	_, err = s.DoCommand(ctx, map[string]interface{}{"pose": "e4"})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = s.DoCommand(ctx, map[string]interface{}{"reset-game": ""})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = s.DoCommand(ctx, map[string]interface{}{"dance": true})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTrackerGame(t *testing.T) {
	ctx := context.Background()

	// white pawns on e2, black pawns on e7
	s, src := newTestTracker(t,
		&TrackerConfig{Camera: "cam", Board: *testBoardConfig(), TrackGame: true},
		boardFrame(map[image.Point]color.NRGBA{{4, 6}: testBlue, {4, 1}: testBrown}))

	_, err := s.DoCommand(ctx, map[string]interface{}{"initial": true})
	test.That(t, err, test.ShouldBeNil)

	src.set(boardFrame(map[image.Point]color.NRGBA{{4, 4}: testBlue, {4, 1}: testBrown}))
	_, err = s.DoCommand(ctx, map[string]interface{}{"update": true})
	test.That(t, err, test.ShouldBeNil)

	res, err := s.DoCommand(ctx, map[string]interface{}{"compare": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["move"], test.ShouldEqual, "e2e4")
	test.That(t, res["fen"], test.ShouldStartWith, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq")

	res, err = s.DoCommand(ctx, map[string]interface{}{"reset-game": ""})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["fen"], test.ShouldStartWith, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq")
}

func TestTrackerPose(t *testing.T) {
	ctx := context.Background()

	board := *testBoardConfig()
	board.Arm = &ArmConfig{
		A1:           [2]float64{0, 0},
		H8:           [2]float64{350, 350},
		HoverHeight:  200,
		PickupHeight: 20,
		PlaceHeight:  30,
	}
	s, _ := newTestTracker(t, &TrackerConfig{Camera: "cam", Board: board}, boardFrame(nil))

	res, err := s.DoCommand(ctx, map[string]interface{}{"pose": "h8"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["square"], test.ShouldEqual, "H8")
	test.That(t, res["pickup"], test.ShouldResemble, map[string]interface{}{"x": 350.0, "y": 350.0, "z": 20.0})

	_, err = s.DoCommand(ctx, map[string]interface{}{"pose": "k9"})
	test.That(t, err, test.ShouldNotBeNil)
}
