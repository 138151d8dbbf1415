// Package muxer combines a separately downloaded video and audio stream into
// one container by running ffmpeg without re-encoding.
package muxer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/otofune/reddl/ctxlogger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// ffmpeg flags
const (
	InputFlag  = "-i"
	CodecFlag  = "-c"
	CodecCopy  = "copy"
	MapFlag    = "-map"
	VideoTrack = "0:v:0"
	AudioTrack = "1:a:0"
)

// outputTailLines is how much muxer output an ExitError keeps.
const outputTailLines = 20

// ExitError is returned when the muxer process fails.
type ExitError struct {
	Path   string
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s failed: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v\n%s", e.Path, e.Err, e.Output)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// FFmpeg runs the configured ffmpeg executable.
type FFmpeg struct {
	path string

	// execCommand is replaceable for testing.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New returns a muxer invoking the executable at path (a bare name is looked up in PATH).
func New(path string) *FFmpeg {
	return &FFmpeg{
		path:        path,
		execCommand: exec.CommandContext,
	}
}

// Args builds the command line. Input 0 must be the video and input 1 the
// audio, the track maps depend on that order.
func Args(videoFile, audioFile, outputFile string) []string {
	return []string{
		InputFlag, videoFile,
		InputFlag, audioFile,
		CodecFlag, CodecCopy,
		MapFlag, VideoTrack,
		MapFlag, AudioTrack,
		outputFile,
	}
}

// Mux writes outputFile from videoFile and audioFile. Combined stdout and
// stderr of the process go to the debug log.
func (f *FFmpeg) Mux(ctx context.Context, videoFile, audioFile, outputFile string) error {
	logger := ctxlogger.ExtractLogger(ctx)

	args := Args(videoFile, audioFile, outputFile)
	cmd := f.execCommand(ctx, f.path, args...)
	logger.Printf("%s %s", f.path, strings.Join(args, " "))

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return xerrors.Errorf("start %s: %w", f.path, err)
	}

	tail := make([]string, 0, outputTailLines)
	var eg errgroup.Group
	eg.Go(func() error {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			logger.Debugf("%s", line)
			if len(tail) == outputTailLines {
				tail = tail[1:]
			}
			tail = append(tail, line)
		}
		if err := scanner.Err(); err != nil {
			// keep the process from blocking on a full pipe
			io.Copy(io.Discard, pr)
			return xerrors.Errorf("read %s output: %w", f.path, err)
		}
		return nil
	})

	waitErr := cmd.Wait()
	pw.Close()
	scanErr := eg.Wait()

	if waitErr != nil {
		return &ExitError{
			Path:   f.path,
			Output: strings.Join(tail, "\n"),
			Err:    waitErr,
		}
	}
	if scanErr != nil {
		logger.Warnf("%v", scanErr)
	}
	return nil
}
