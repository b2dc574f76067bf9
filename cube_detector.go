package cubetracker

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// ColorSpace names the channel order that ColorRange bounds are written in.
type ColorSpace string

const (
	// ColorSpaceBGR compares blue, green, red bytes.
	ColorSpaceBGR ColorSpace = "bgr"
	// ColorSpaceHSV compares hue (0-179), saturation and value (0-255), OpenCV style.
	ColorSpaceHSV ColorSpace = "hsv"
)

const (
	cubeMaskKernelRadius = 2 // 5x5
	cubeMaskIterations   = 2
)

// CubeDetection is one cube found in an image, in that image's coordinates.
type CubeDetection struct {
	Color string
	Box   image.Rectangle
}

// Center returns the middle of the bounding box.
func (c CubeDetection) Center() (float64, float64) {
	return float64(c.Box.Min.X) + float64(c.Box.Dx())/2, float64(c.Box.Min.Y) + float64(c.Box.Dy())/2
}

// DetectCubes finds cubes of every configured color.
// The order of detections within one color is not meaningful.
func DetectCubes(img image.Image, colors []ColorRange, space ColorSpace, th Thresholds) ([]CubeDetection, error) {
	for _, cr := range colors {
		if err := cr.Validate(); err != nil {
			return nil, err
		}
	}

	channels, err := toChannels(img, space)
	if err != nil {
		return nil, err
	}

	var cubes []CubeDetection
	for _, cr := range colors {
		mask := colorMask(channels, cr)
		mask = openMask(mask, cubeMaskKernelRadius, cubeMaskIterations)

		blobs, err := findBlobs(mask)
		if err != nil {
			return nil, fmt.Errorf("finding %s blobs: %w", cr.Name, err)
		}
		for _, b := range blobs {
			if b.area < float64(th.MinArea) {
				continue
			}
			if b.box.Dx() < th.MinWidth || b.box.Dy() < th.MinHeight {
				continue
			}
			cubes = append(cubes, CubeDetection{Color: cr.Name, Box: b.box})
		}
	}
	return cubes, nil
}

// colorMask is the union of all of cr's ranges.
func colorMask(channels [][][3]uint8, cr ColorRange) [][]bool {
	height := len(channels)
	width := 0
	if height > 0 {
		width = len(channels[0])
	}
	mask := newMask(width, height)

	for _, r := range cr.Ranges {
		current := newMask(width, height)
		for y := range height {
			for x := range width {
				current[y][x] = inRange(channels[y][x], r)
			}
		}
		orMask(mask, current)
	}
	return mask
}

func inRange(px [3]uint8, r ChannelRange) bool {
	for ch := range 3 {
		if px[ch] < r.Lower[ch] || px[ch] > r.Upper[ch] {
			return false
		}
	}
	return true
}

// toChannels converts every pixel into the triple the ranges are written in.
func toChannels(img image.Image, space ColorSpace) ([][][3]uint8, error) {
	if space == "" {
		space = ColorSpaceBGR
	}
	if space != ColorSpaceBGR && space != ColorSpaceHSV {
		return nil, fmt.Errorf("unknown color space %q: %w", space, ErrInvalidInput)
	}

	src := imaging.Clone(img)
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	out := make([][][3]uint8, height)
	for y := range height {
		out[y] = make([][3]uint8, width)
		for x := range width {
			i := src.PixOffset(x, y)
			r, g, b := src.Pix[i], src.Pix[i+1], src.Pix[i+2]
			if space == ColorSpaceBGR {
				out[y][x] = [3]uint8{b, g, r}
				continue
			}
			out[y][x] = opencvHSV(r, g, b)
		}
	}
	return out, nil
}

// opencvHSV returns hue halved to 0-179 and saturation, value scaled to 0-255.
func opencvHSV(r, g, b uint8) [3]uint8 {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	hue := math.Round(h / 2)
	if hue >= 180 {
		hue = 0
	}
	return [3]uint8{uint8(hue), clampByte(s * 255), clampByte(v * 255)}
}

// EnhanceSaturation adds boost (on the 0-255 scale) to every pixel's
// saturation, clamped at full saturation.
func EnhanceSaturation(img image.Image, boost int) *image.NRGBA {
	out := imaging.Clone(img)
	if boost == 0 {
		return out
	}

	for i := 0; i+3 < len(out.Pix); i += 4 {
		c := colorful.Color{
			R: float64(out.Pix[i]) / 255,
			G: float64(out.Pix[i+1]) / 255,
			B: float64(out.Pix[i+2]) / 255,
		}
		h, s, v := c.Hsv()
		s = math.Min(1, math.Max(0, (math.Round(s*255)+float64(boost))/255))
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = colorful.Hsv(h, s, v).Clamped().RGB255()
	}
	return out
}
