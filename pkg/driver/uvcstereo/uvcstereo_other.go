//go:build !linux

package uvcstereo

import (
	"github.com/pablodawson/proyecto-vision/pkg/driver/availability"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

type camera struct {
	common
}

func newCamera(path string, res prop.Resolution, calibPath string) *camera {
	return &camera{common: common{path: path, resolution: res, calibPath: calibPath}}
}

func (c *camera) Open() error {
	return availability.ErrUnsupportedPlatform
}

func (c *camera) Close() error {
	return nil
}

func (c *camera) Grab() (*frame.Stereo, error) {
	return nil, availability.ErrUnsupportedPlatform
}
