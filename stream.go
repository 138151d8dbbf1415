package reddl

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/otofune/reddl/ctxlogger"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/xerrors"
)

// SaveStream writes the body of rawURL to dstFile, replacing any existing file,
// and returns the number of bytes written.
func (c *Client) SaveStream(ctx context.Context, rawURL string, dstFile string) (int64, error) {
	logger := ctxlogger.ExtractLogger(ctx)
	logger.Printf("Saving stream to '%s'", dstFile)

	resp, err := c.ctxGet(ctx, rawURL)
	if err != nil {
		return 0, xerrors.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	fp, err := os.OpenFile(dstFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, xerrors.Errorf("create %s: %w", dstFile, err)
	}

	var w io.Writer = fp
	if c.progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(c.progress),
			progressbar.OptionSetDescription(filepath.Base(dstFile)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		w = io.MultiWriter(fp, bar)
	}

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		fp.Close()
		return written, xerrors.Errorf("save %s: %w", dstFile, err)
	}
	if err := fp.Close(); err != nil {
		return written, xerrors.Errorf("close %s: %w", dstFile, err)
	}
	if resp.ContentLength != -1 && written != resp.ContentLength {
		return written, xerrors.Errorf("short download of %s: got %d of %d bytes", rawURL, written, resp.ContentLength)
	}

	size, err := fileSize(dstFile)
	if err != nil {
		return written, err
	}
	logger.Printf("Wrote %d KB (%s)", size/1024, humanize.Bytes(uint64(size)))
	return written, nil
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, xerrors.Errorf("stat %s: %w", path, err)
	}
	return fi.Size(), nil
}
