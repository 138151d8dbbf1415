package reddl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/otofune/reddl/ctxdebugfs"
	"github.com/otofune/reddl/ctxlogger"
	"golang.org/x/xerrors"
)

const postInfoPath = "/api/info/?id=t3_%s"

// PostInfo is what a run needs to know about one post.
type PostInfo struct {
	ID          string
	Title       string
	PostBaseURL string
	VideoURL    string
	HLSURL      string

	// AudioURL is set only after an audio variant was selected.
	AudioURL string
}

// Everything below mimics reddit's /api/info response.

type listing struct {
	Data listingData `json:"data"`
}

type listingData struct {
	Children []child `json:"children"`
}

type child struct {
	Kind string    `json:"kind"`
	Data childData `json:"data"`
}

type childData struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Media *media `json:"media"`
}

type media struct {
	RedditVideo *redditVideo `json:"reddit_video"`
}

type redditVideo struct {
	FallbackURL string `json:"fallback_url"`
	HLSURL      string `json:"hls_url"`
	DashURL     string `json:"dash_url"`
	BitrateKbps int    `json:"bitrate_kbps"`
	Height      int    `json:"height"`
	Width       int    `json:"width"`
	Duration    int    `json:"duration"`
}

// PostInfoURL is the API endpoint describing post id.
func (c *Client) PostInfoURL(id string) string {
	return strings.TrimSuffix(c.cfg.APIBase, "/") + fmt.Sprintf(postInfoPath, url.QueryEscape(id))
}

// FetchPostInfo asks the API for post id. Posts without a hosted video are
// reported with ErrNoChildren, ErrNoMedia or ErrNoRedditVideo.
func (c *Client) FetchPostInfo(ctx context.Context, id string) (*PostInfo, error) {
	logger := ctxlogger.ExtractLogger(ctx)

	if id == "" {
		return nil, ErrMissingPostID
	}

	u := c.PostInfoURL(id)
	logger.Printf("Requesting %s", u)

	resp, err := c.ctxGet(ctx, u)
	if err != nil {
		return nil, xerrors.Errorf("request post info: %w", err)
	}
	resp.Body = ctxdebugfs.Tee(ctx, resp.Body, fmt.Sprintf("post_%s.json", id))
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("read post info: %w", err)
	}
	logger.Printf("%d:%s", resp.StatusCode, body)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	post, err := parsePostInfo(body)
	if err != nil {
		return nil, err
	}
	post.ID = id
	return post, nil
}

func parsePostInfo(body []byte) (*PostInfo, error) {
	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, xerrors.Errorf("decode post info (%v): %w", err, ErrInvalidResponse)
	}

	if len(l.Data.Children) == 0 {
		return nil, ErrNoChildren
	}
	d := l.Data.Children[0].Data
	if d.Media == nil {
		return nil, ErrNoMedia
	}
	if d.Media.RedditVideo == nil || d.Media.RedditVideo.FallbackURL == "" {
		return nil, ErrNoRedditVideo
	}

	return &PostInfo{
		Title:       d.Title,
		PostBaseURL: d.URL,
		VideoURL:    d.Media.RedditVideo.FallbackURL,
		HLSURL:      d.Media.RedditVideo.HLSURL,
	}, nil
}
