// Package reddl downloads a reddit video post: it resolves the post's video
// and audio streams, saves both and merges them into one file with ffmpeg.
package reddl

import (
	"context"
	"io"
	"net/http"

	"github.com/otofune/reddl/config"
	"github.com/otofune/reddl/muxer"
)

// Muxer merges a video file and an audio file into outputFile.
type Muxer interface {
	Mux(ctx context.Context, videoFile, audioFile, outputFile string) error
}

// Client runs downloads with one configuration.
type Client struct {
	cfg   *config.Config
	hc    *http.Client
	muxer Muxer

	// progress receives download progress bars; nil draws nothing.
	progress io.Writer
}

// New creates a Client using cfg.Muxer as the ffmpeg executable.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg:   cfg,
		hc:    newHTTPClient(cfg.Timeout),
		muxer: muxer.New(cfg.Muxer),
	}
}

// WithMuxer replaces the ffmpeg muxer.
func (c *Client) WithMuxer(m Muxer) *Client {
	c.muxer = m
	return c
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.hc = hc
	return c
}

// WithProgress draws download progress bars on w.
func (c *Client) WithProgress(w io.Writer) *Client {
	c.progress = w
	return c
}
