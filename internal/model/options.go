package model

import (
	"fmt"
	"strconv"
	"strings"
)

// VideoCodec selects the video encoder template.
type VideoCodec string

const (
	CodecVP8 VideoCodec = "vp8" // legacy
	CodecVP9 VideoCodec = "vp9" // default
	CodecAV1 VideoCodec = "av1"
)

// AudioCodec is the single audio mode field. Strip, copy and encode are
// mutually exclusive states of it.
type AudioCodec string

const (
	AudioUnset  AudioCodec = ""
	AudioOpus   AudioCodec = "opus"
	AudioVorbis AudioCodec = "vorbis"
	AudioCopy   AudioCodec = "copy"
	AudioNone   AudioCodec = "none"
)

// Encoded reports whether the mode re-encodes audio.
func (a AudioCodec) Encoded() bool {
	return a == AudioOpus || a == AudioVorbis
}

// Trim is the output window in seconds. End and Duration are mutually
// exclusive; an unset end means "to end of stream".
type Trim struct {
	Start    *float64
	End      *float64
	Duration *float64
}

// IsSet reports whether any part of the window was given.
func (t Trim) IsSet() bool {
	return t.Start != nil || t.End != nil || t.Duration != nil
}

// StartOr returns the start offset, or 0 when unset.
func (t Trim) StartOr() float64 {
	if t.Start == nil {
		return 0
	}
	return *t.Start
}

// CropRect is a crop rectangle in source pixels.
type CropRect struct {
	X, Y int
	W, H int
}

// Filter renders the rectangle as an ffmpeg crop filter.
func (c CropRect) Filter() string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", c.W, c.H, c.X, c.Y)
}

// SubtitleSpec selects subtitles to burn in, either from File or from the
// input itself.
type SubtitleSpec struct {
	File       string
	FromInput  bool
	Index      *int
	Delay      *float64
	ForceStyle string
}

// Burn reports whether a subtitle source was chosen.
func (s *SubtitleSpec) Burn() bool {
	return s != nil && (s.File != "" || s.FromInput)
}

// RawOptions are ffmpeg option strings spliced verbatim into the command.
type RawOptions struct {
	PreInput  string // before the first -i
	PostInput string // right after the first input
	Extra     string // before the output
}

// Metadata controls the container metadata written on the final pass.
type Metadata struct {
	Title           string
	TitleFromOutput bool
	CreationTime    bool
	Strip           bool
}

// Options is the full set of settings for one invocation. It is built once
// from flags, changed at most once by the interactive selector and then
// treated as read-only.
type Options struct {
	InputPath  string
	OutputPath string

	Trim Trim

	SizeLimitMiB     *float64
	VideoBitrateKbps *int // 0 means constant quality
	CRF              *int
	QMin             *int
	QMax             *int

	VideoCodec VideoCodec
	Effort     *int
	Width      *int
	Height     *int
	Threads    int

	Audio            AudioCodec
	AudioBitrateKbps *int
	VorbisQuality    *int
	AudioFilters     string

	VideoStream   string
	AudioStream   string
	ExternalAudio string

	Subtitles *SubtitleSpec
	Crop      *CropRect

	VideoFiltersInsert string
	VideoFilters       string
	Raw                RawOptions

	Passes int
	Meta   Metadata

	Interactive bool
	PlayerOpts  string
	// Cover enables album-art mode; the value holds loop options for the
	// image input, empty for the defaults.
	Cover *string

	Verbose bool
}

// MediaInfo is what the probe learned about the input.
type MediaInfo struct {
	Duration  float64
	Width     int
	Height    int
	AudioKbps int // first audio stream, 0 when unknown
	Title     string
	// AudioTracks lists the audio streams in banner order.
	AudioTracks []AudioTrack
}

// AudioTrack is one audio stream of the probed input.
type AudioTrack struct {
	Stream int // index in the input, as in "Stream #0:N"
	Kbps   int // 0 when the banner has no bitrate
}

// AudioKbpsFor returns the bitrate of the audio stream an -as value
// selects. A bare number is a stream index in the input and "a:N" is
// the Nth audio stream; other forms fall back to the first audio stream.
func (m MediaInfo) AudioKbpsFor(sel string) int {
	if sel == "" {
		return m.AudioKbps
	}
	if n, err := strconv.Atoi(sel); err == nil {
		for _, t := range m.AudioTracks {
			if t.Stream == n {
				return t.Kbps
			}
		}
		return 0
	}
	if rest, ok := strings.CutPrefix(sel, "a:"); ok {
		if n, err := strconv.Atoi(rest); err == nil {
			if n >= 0 && n < len(m.AudioTracks) {
				return m.AudioTracks[n].Kbps
			}
			return 0
		}
	}
	return m.AudioKbps
}
