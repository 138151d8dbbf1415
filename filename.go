package reddl

import (
	"path/filepath"
)

// MaxTitleLength bounds the title part of the final file name; ffmpeg and
// some filesystems reject longer names.
const MaxTitleLength = 240

// OutputExtension is the container suffix of merged and final files.
const OutputExtension = ".mp4"

// FinalFilename truncates title to MaxTitleLength characters and appends
// OutputExtension. No other sanitization is applied.
func FinalFilename(title string) string {
	r := []rune(title)
	if len(r) > MaxTitleLength {
		r = r[:MaxTitleLength]
	}
	return string(r) + OutputExtension
}

// workFiles are the per-run file paths, all inside one directory.
type workFiles struct {
	video  string
	audio  string
	merged string
	final  string
}

func newWorkFiles(dir, id, title string) workFiles {
	return workFiles{
		video:  filepath.Join(dir, id+"_video"+OutputExtension),
		audio:  filepath.Join(dir, id+"_audio"+audioExtension),
		merged: filepath.Join(dir, id+OutputExtension),
		final:  filepath.Join(dir, FinalFilename(title)),
	}
}
