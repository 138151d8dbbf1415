package reddl

import (
	"context"
	"os"

	"github.com/otofune/reddl/ctxlogger"
	"golang.org/x/xerrors"
)

// Stage is a step of a run. Runs only move forward; any failure ends the run.
type Stage int

const (
	StageFetchingPost Stage = iota
	StageFetchingManifest
	StageDownloadingVideo
	StageDownloadingAudio
	StageMerging
	StageFinalizing
)

func (s Stage) String() string {
	switch s {
	case StageFetchingPost:
		return "fetching post"
	case StageFetchingManifest:
		return "fetching manifest"
	case StageDownloadingVideo:
		return "downloading video"
	case StageDownloadingAudio:
		return "downloading audio"
	case StageMerging:
		return "merging"
	case StageFinalizing:
		return "finalizing"
	}
	return "unknown"
}

func failed(stage Stage, err error) error {
	return &RunError{Stage: stage, Err: err}
}

// Run downloads post id into the configured directory and returns the path of
// the final file. Errors are *RunError values naming the failed stage.
func (c *Client) Run(ctx context.Context, id string) (string, error) {
	logger := ctxlogger.ExtractLogger(ctx)

	post, err := c.FetchPostInfo(ctx, id)
	if err != nil {
		return "", failed(StageFetchingPost, err)
	}
	logger.Printf("%+v", *post)
	logger.Printf("Using video stream from %s", post.VideoURL)

	if post.HLSURL != "" {
		if err := c.SelectAudio(ctx, post); err != nil {
			return "", failed(StageFetchingManifest, err)
		}
	} else {
		logger.Printf("No manifest URL, using video stream only")
	}

	files := newWorkFiles(c.cfg.Dir, id, post.Title)
	if err := os.MkdirAll(c.cfg.Dir, 0o755); err != nil {
		return "", failed(StageDownloadingVideo, xerrors.Errorf("create output dir: %w", err))
	}

	if _, err := c.SaveStream(ctx, post.VideoURL, files.video); err != nil {
		return "", failed(StageDownloadingVideo, err)
	}

	if post.AudioURL == "" {
		if err := os.Rename(files.video, files.final); err != nil {
			return "", failed(StageFinalizing, xerrors.Errorf("rename video: %w", err))
		}
	} else {
		if _, err := c.SaveStream(ctx, post.AudioURL, files.audio); err != nil {
			return "", failed(StageDownloadingAudio, err)
		}
		if err := c.merge(ctx, files); err != nil {
			return "", failed(StageMerging, err)
		}
		if err := os.Rename(files.merged, files.final); err != nil {
			return "", failed(StageFinalizing, xerrors.Errorf("rename merged file: %w", err))
		}
		if err := os.Remove(files.audio); err != nil {
			return "", failed(StageFinalizing, xerrors.Errorf("remove audio: %w", err))
		}
	}

	// the video-only path already moved the video file
	if _, err := removeStale(files.video); err != nil {
		return "", failed(StageFinalizing, xerrors.Errorf("remove video: %w", err))
	}

	size, err := fileSize(files.final)
	if err != nil {
		return "", failed(StageFinalizing, err)
	}
	logger.Printf("Wrote %d KB to '%s'", size/1024, files.final)
	return files.final, nil
}

// merge clears stale outputs and runs the muxer into files.merged.
func (c *Client) merge(ctx context.Context, files workFiles) error {
	logger := ctxlogger.ExtractLogger(ctx)
	logger.Printf("Merging streams using %s", c.cfg.Muxer)

	removed, err := removeStale(files.merged)
	if err != nil {
		return xerrors.Errorf("remove existing output file: %w", err)
	}
	if removed {
		logger.Printf("Removed existing output file")
	}

	removed, err = removeStale(files.final)
	if err != nil {
		return xerrors.Errorf("remove existing final file: %w", err)
	}
	if removed {
		logger.Printf("Removed existing final file")
	}

	if err := c.muxer.Mux(ctx, files.video, files.audio, files.merged); err != nil {
		return xerrors.Errorf("mux: %w", err)
	}
	return nil
}

// removeStale removes path and reports whether there was anything to remove.
func removeStale(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
