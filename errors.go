package reddl

import (
	"fmt"

	"golang.org/x/xerrors"
)

var (
	ErrMissingPostID         = xerrors.New("reddl: post id is required")
	ErrInvalidResponse       = xerrors.New("reddl: invalid response")
	ErrNoChildren            = xerrors.New("reddl: content has no 'children'")
	ErrNoMedia               = xerrors.New("reddl: content has no 'media'")
	ErrNoRedditVideo         = xerrors.New("reddl: content has no 'reddit_video'")
	ErrMalformedAudioVariant = xerrors.New("reddl: audio media-uri does not match HLS_AUDIO_<kbps>_K.m3u8")
)

// StatusError is returned when a server answers with an unexpected status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// RunError records the stage a run failed in.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
