package reddl

import (
	"sort"
)

// AudioVariant is one audio rendition referenced from a manifest.
type AudioVariant struct {
	// URI is the manifest file name, e.g. HLS_AUDIO_128_K.m3u8.
	URI string
	// Bitrate in kbps.
	Bitrate int
}

type AudioVariants []*AudioVariant

// Sort orders by bitrate, highest first. Equal bitrates keep their manifest order.
func (avs AudioVariants) Sort() AudioVariants {
	sort.SliceStable(avs, func(i, j int) bool {
		return avs[i].Bitrate > avs[j].Bitrate
	})
	return avs
}

// Best sorts avs and returns the highest bitrate variant, or nil when empty.
func (avs AudioVariants) Best() *AudioVariant {
	if len(avs) == 0 {
		return nil
	}
	return avs.Sort()[0]
}
