package reddl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/grafov/m3u8"
	"github.com/otofune/reddl/ctxdebugfs"
	"github.com/otofune/reddl/ctxlogger"
	"golang.org/x/xerrors"
)

const (
	audioMarker       = "HLS_AUDIO"
	manifestExtension = ".m3u8"
	audioExtension    = ".aac"
)

var audioVariantPattern = regexp2.MustCompile(`HLS_AUDIO_(?<bitrate>[0-9]+)_K\.m3u8`, regexp2.None)

// ParseAudioVariantLine extracts the audio variant referenced by one manifest
// line. Lines without the HLS_AUDIO marker return nil and no error; lines with
// the marker but no HLS_AUDIO_<kbps>_K.m3u8 token return ErrMalformedAudioVariant.
func ParseAudioVariantLine(line string) (*AudioVariant, error) {
	if !strings.Contains(line, audioMarker) {
		return nil, nil
	}

	m, err := audioVariantPattern.FindStringMatch(line)
	if err != nil {
		return nil, xerrors.Errorf("match audio variant: %w", err)
	}
	if m == nil {
		return nil, xerrors.Errorf("%q: %w", line, ErrMalformedAudioVariant)
	}

	bitrate, err := strconv.Atoi(m.GroupByName("bitrate").String())
	if err != nil {
		return nil, xerrors.Errorf("%q (%v): %w", line, err, ErrMalformedAudioVariant)
	}

	return &AudioVariant{URI: m.String(), Bitrate: bitrate}, nil
}

// ScanAudioVariants collects the audio variants of a manifest in the order they appear.
func ScanAudioVariants(ctx context.Context, manifest string) AudioVariants {
	logger := ctxlogger.ExtractLogger(ctx)

	var avs AudioVariants
	for _, line := range strings.Split(manifest, "\n") {
		line = strings.TrimRight(line, "\r")
		v, err := ParseAudioVariantLine(line)
		if err != nil {
			logger.Warnf("Skipping audio media-uri: %v", err)
			continue
		}
		if v == nil {
			continue
		}
		logger.Debugf("Found audio media-uri: %s", line)
		avs = append(avs, v)
	}
	return avs
}

// AudioURL points the variant's manifest name at the audio stream next to the post.
func AudioURL(postBaseURL string, v *AudioVariant) string {
	name := strings.TrimSuffix(v.URI, manifestExtension) + audioExtension
	return strings.TrimSuffix(postBaseURL, "/") + "/" + name
}

// InspectManifest returns the highest bandwidth video rendition of a master
// playlist, or nil when the manifest is a media playlist.
func InspectManifest(manifest []byte) (*m3u8.Variant, error) {
	p, listType, err := m3u8.DecodeFrom(bytes.NewReader(manifest), false)
	if err != nil {
		return nil, xerrors.Errorf("decode manifest: %w", err)
	}
	if listType != m3u8.MASTER {
		return nil, nil
	}
	master, ok := p.(*m3u8.MasterPlaylist)
	if !ok {
		return nil, xerrors.Errorf("unexpected playlist decoded: %T", p)
	}

	var best *m3u8.Variant
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best, nil
}

// FetchManifest downloads the post's manifest.
func (c *Client) FetchManifest(ctx context.Context, post *PostInfo) ([]byte, error) {
	resp, err := c.ctxGet(ctx, post.HLSURL)
	if err != nil {
		return nil, xerrors.Errorf("request manifest: %w", err)
	}
	resp.Body = ctxdebugfs.Tee(ctx, resp.Body, fmt.Sprintf("%s.m3u8", post.ID))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: post.HLSURL, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("read manifest: %w", err)
	}
	return b, nil
}

// SelectAudio fetches the manifest and sets post.AudioURL to the highest
// bitrate audio stream. A manifest without audio variants leaves it empty.
func (c *Client) SelectAudio(ctx context.Context, post *PostInfo) error {
	logger := ctxlogger.ExtractLogger(ctx)

	manifest, err := c.FetchManifest(ctx, post)
	if err != nil {
		return err
	}

	if best, err := InspectManifest(manifest); err != nil {
		logger.Debugf("Could not inspect manifest: %v", err)
	} else if best != nil {
		logger.Debugf("Best video rendition %s at %d bps (%s)", best.URI, best.Bandwidth, best.Resolution)
	}

	v := ScanAudioVariants(ctx, string(manifest)).Best()
	if v == nil {
		logger.Printf("No audio URI found")
		return nil
	}

	post.AudioURL = AudioURL(post.PostBaseURL, v)
	logger.Printf("Using %d_K audio stream from %s", v.Bitrate, post.AudioURL)
	return nil
}
