package cubetracker

import (
	"context"
	"fmt"
	"image"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/rimage"
)

// FrameSource provides camera frames. Implementations need not be safe for
// concurrent use; the analyzer serializes calls.
type FrameSource interface {
	ReadFrame(ctx context.Context) (image.Image, error)
}

// NewCameraFrameSource reads the first image a viam camera returns.
func NewCameraFrameSource(cam camera.Camera) FrameSource {
	return &cameraFrameSource{cam: cam}
}

type cameraFrameSource struct {
	cam camera.Camera
}

func (s *cameraFrameSource) ReadFrame(ctx context.Context) (image.Image, error) {
	ni, _, err := s.cam.Images(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(ni) == 0 {
		return nil, fmt.Errorf("no images returned from camera %v", s.cam.Name())
	}
	return ni[0].Image(ctx)
}

// FileFrameSource serves the image stored at Path on every read.
type FileFrameSource struct {
	Path string
}

// ReadFrame decodes the file.
func (s FileFrameSource) ReadFrame(ctx context.Context) (image.Image, error) {
	return rimage.ReadImageFromFile(s.Path)
}
