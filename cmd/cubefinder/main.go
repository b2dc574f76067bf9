package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"

	"cubetracker"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage"
)

func main() {
	err := realMain()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func realMain() error {
	ctx := context.Background()
	logger := logging.NewLogger("cubefinder")

	configFile := flag.String("config", "settings.yaml", "board settings file")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config settings.yaml] <before.jpg> [after.jpg]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		logger.SetLevel(logging.DEBUG)
	}

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		return fmt.Errorf("need one or two images")
	}

	cfg, err := cubetracker.LoadConfigFile(*configFile)
	if err != nil {
		return err
	}

	extractor, err := cubetracker.NewExtractor(cfg, logger)
	if err != nil {
		return err
	}

	states := []cubetracker.BoardState{}
	for _, fn := range flag.Args() {
		state, err := processFile(ctx, extractor, fn)
		if err != nil {
			return fmt.Errorf("%s: %w", fn, err)
		}
		states = append(states, state)
	}

	if len(states) == 2 {
		events, err := cubetracker.CompareBoards(states[0], states[1])
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println(cubetracker.OutcomeNoMovement)
		} else {
			fmt.Println(strings.Join(cubetracker.Tokens(events), ", "))
		}
	}

	return nil
}

func processFile(ctx context.Context, extractor *cubetracker.Extractor, fn string) (cubetracker.BoardState, error) {
	input, err := cubetracker.FileFrameSource{Path: fn}.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Printf("%s: %dx%d\n", fn, input.Bounds().Dx(), input.Bounds().Dy())

	ext, err := extractor.Extract(ctx, input)
	if err != nil {
		return nil, err
	}

	if len(ext.State) == 0 {
		fmt.Printf("  %s\n", cubetracker.OutcomeNoCubesDetected)
	}
	for _, s := range ext.State.Lines() {
		fmt.Printf("  %s\n", s)
	}

	cfg := extractor.Config()

	err = rimage.WriteImageToFile(outputName(fn, "_annotated"), cubetracker.AnnotateExtraction(ext, cfg.Grid()))
	if err != nil {
		return nil, err
	}

	// mark the configured corners on the raw frame to check calibration
	output := image.NewRGBA(input.Bounds())
	draw.Draw(output, input.Bounds(), input, input.Bounds().Min, draw.Src)

	red := color.RGBA{255, 0, 0, 255}
	for _, p := range cfg.ChessboardPoints {
		drawCircle(output, p[0], p[1], 10, red)
		drawCross(output, p[0], p[1], 15, red)
	}

	err = rimage.WriteImageToFile(outputName(fn, "_corners"), output)
	if err != nil {
		return nil, err
	}

	return ext.State, nil
}

// outputName turns input.jpg into input<suffix>.jpg
func outputName(fn, suffix string) string {
	ext := filepath.Ext(fn)
	return strings.TrimSuffix(fn, ext) + suffix + ext
}

func drawCircle(img *image.RGBA, cx, cy, radius int, c color.Color) {
	b := img.Bounds()
	for angle := 0.0; angle < 360; angle += 1 {
		x := cx + int(float64(radius)*math.Cos(angle*math.Pi/180))
		y := cy + int(float64(radius)*math.Sin(angle*math.Pi/180))
		if (image.Point{x, y}).In(b) {
			img.Set(x, y, c)
		}
	}
}

func drawCross(img *image.RGBA, cx, cy, size int, c color.Color) {
	b := img.Bounds()
	for d := -size; d <= size; d++ {
		if (image.Point{cx + d, cy}).In(b) {
			img.Set(cx+d, cy, c)
		}
		if (image.Point{cx, cy + d}).In(b) {
			img.Set(cx, cy+d, c)
		}
	}
}
