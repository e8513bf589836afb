// Package media loads background and overlay layers: still images scaled to
// the canvas and looping videos decoded by ffmpeg.
package media

import (
	"errors"
	"image"
	"path/filepath"
	"strings"
)

// ErrMediaLoad is wrapped by every failure to open or decode an input file.
var ErrMediaLoad = errors.New("media load failed")

// Source yields the background frame for a playback time. FrameAt must be
// called with non-decreasing t; the returned frame must not be modified.
type Source interface {
	FrameAt(t float64) (*image.RGBA, error)
	Close() error
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".m4v":  true,
	".gif":  true,
}

// IsVideo reports whether path names a file handled as a looping video.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Open returns a VideoLoop for video files and a StaticImage for everything
// else. duration bounds how much of a looping video is decoded.
func Open(path string, width, height, fps int, duration float64) (Source, error) {
	if IsVideo(path) {
		return NewVideoLoop(path, width, height, fps, duration)
	}
	img, err := LoadImage(path, width, height)
	if err != nil {
		return nil, err
	}
	return NewStaticImage(img), nil
}
