package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// FFmpegCamera grabs a single frame from a capture device with ffmpeg.
type FFmpegCamera struct {
	ffmpegPath  string
	device      string
	inputFormat string
	photos      PhotoStore
	log         *logrus.Logger
}

func NewFFmpegCamera(device, inputFormat string, photos PhotoStore, log *logrus.Logger) (*FFmpegCamera, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	if _, err := os.Stat(device); err != nil {
		return nil, fmt.Errorf("capture device not accessible: %w", err)
	}

	log.WithFields(logrus.Fields{"ffmpeg": ffmpegPath, "device": device}).Info("Camera initialized...Waiting for input!")

	return &FFmpegCamera{
		ffmpegPath:  ffmpegPath,
		device:      device,
		inputFormat: inputFormat,
		photos:      photos,
		log:         log,
	}, nil
}

func (c *FFmpegCamera) Capture(ctx context.Context) (string, error) {
	path, err := c.photos.CreateUniqueFile(PhotoName)
	if err != nil {
		return "", err
	}

	args := captureArgs(c.inputFormat, c.device, path)
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.log.WithField("args", args).Debug("running ffmpeg")

	if err := cmd.Run(); err != nil {
		c.log.WithField("stderr", stderr.String()).Debug("ffmpeg failed")
		os.Remove(path)
		return "", fmt.Errorf("failed to grab frame from %s: %w", c.device, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat photo: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return "", fmt.Errorf("ffmpeg wrote an empty frame from %s", c.device)
	}

	return path, nil
}

func captureArgs(inputFormat, device, output string) []string {
	var args []string
	if inputFormat != "" {
		args = append(args, "-f", inputFormat)
	}
	return append(args,
		"-i", device,
		"-frames:v", "1",
		"-q:v", "2",
		"-f", "mjpeg",
		"-y",
		output,
	)
}
