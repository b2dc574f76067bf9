package main

import (
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"

	"cubetracker"
)

func main() {
	module.ModularMain(
		resource.APIModel{API: camera.API, Model: cubetracker.BoardCameraModel},
		resource.APIModel{API: generic.API, Model: cubetracker.TrackerModel},
	)
}
