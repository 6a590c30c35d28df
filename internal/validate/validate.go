// Package validate checks an Options value and fills in the defaults that
// depend on other fields.
package validate

import (
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	"webmfit/internal/model"
)

// DefaultCRF is used when neither a bitrate nor a size limit constrains
// the encode.
const DefaultCRF = 32

const (
	defaultOpusKbps = 64
	defaultVorbisQ  = 0
	defaultPasses   = 2
	minQuality      = 0
	maxQuality      = 63
	minEffort       = 0
	maxEffort       = 8
)

var defaultEffort = map[model.VideoCodec]int{
	model.CodecVP8: 0,
	model.CodecVP9: 1,
	model.CodecAV1: 4,
}

// Validate checks o and returns a copy with every default applied. It has
// no side effects and never modifies the values o points to. Running it
// again on its own output returns the same value.
func Validate(o model.Options) (model.Options, error) {
	if strings.TrimSpace(o.InputPath) == "" {
		return o, invalid("-i", "input file is required")
	}

	checks := []func(*model.Options) error{
		checkTrim,
		checkRateControl,
		checkVideo,
		checkAudio,
		checkSubtitles,
		checkInteractive,
		checkCover,
		checkMetadata,
		checkCrop,
		checkRaw,
		checkOutput,
	}
	for _, check := range checks {
		if err := check(&o); err != nil {
			return o, err
		}
	}

	applyDefaults(&o)
	return o, nil
}

func checkTrim(o *model.Options) error {
	t := o.Trim
	if t.Duration != nil && t.End != nil {
		return conflict("-t", "-to")
	}
	if t.Start != nil && *t.Start < 0 {
		return invalid("-ss", "position must not be negative")
	}
	if t.Duration != nil && *t.Duration <= 0 {
		return invalid("-t", "duration must be positive")
	}
	if t.End != nil && *t.End <= t.StartOr() {
		return invalid("-to", "end position %g is not after the start %g", *t.End, t.StartOr())
	}
	return nil
}

func checkRateControl(o *model.Options) error {
	if o.SizeLimitMiB != nil && o.VideoBitrateKbps != nil {
		return conflict("-l", "-vb")
	}
	if o.SizeLimitMiB != nil && *o.SizeLimitMiB <= 0 {
		return invalid("-l", "size limit must be positive")
	}
	if o.VideoBitrateKbps != nil && *o.VideoBitrateKbps < 0 {
		return invalid("-vb", "bitrate must not be negative")
	}
	for _, q := range []struct {
		name string
		v    *int
	}{{"-crf", o.CRF}, {"-qmin", o.QMin}, {"-qmax", o.QMax}} {
		if q.v != nil && (*q.v < minQuality || *q.v > maxQuality) {
			return invalid(q.name, "must be in %d..%d range", minQuality, maxQuality)
		}
	}
	if o.QMin != nil && o.QMax != nil && *o.QMin > *o.QMax {
		return invalid("-qmin", "must not be greater than -qmax")
	}
	if o.CRF != nil {
		if o.QMin != nil && *o.CRF < *o.QMin {
			return invalid("-crf", "must not be less than -qmin")
		}
		if o.QMax != nil && *o.CRF > *o.QMax {
			return invalid("-crf", "must not be greater than -qmax")
		}
	}
	switch o.Passes {
	case 0, 1, 2:
	default:
		return invalid("-passes", "must be 1 or 2")
	}
	return nil
}

func checkVideo(o *model.Options) error {
	switch o.VideoCodec {
	case "", model.CodecVP8, model.CodecVP9, model.CodecAV1:
	default:
		return invalid("-vc", "unknown video codec %q", o.VideoCodec)
	}
	if o.Effort != nil && (*o.Effort < minEffort || *o.Effort > maxEffort) {
		return invalid("-speed", "must be in %d..%d range", minEffort, maxEffort)
	}
	if o.Width != nil && *o.Width == 0 {
		return invalid("-vw", "width must not be zero")
	}
	if o.Height != nil && *o.Height == 0 {
		return invalid("-vh", "height must not be zero")
	}
	if o.Threads < 0 {
		return invalid("-threads", "must not be negative")
	}
	return nil
}

func checkAudio(o *model.Options) error {
	switch o.Audio {
	case model.AudioNone:
		switch {
		case o.AudioBitrateKbps != nil:
			return conflict("-an", "-ab")
		case o.VorbisQuality != nil:
			return conflict("-an", "-aq")
		case o.ExternalAudio != "":
			return conflict("-an", "-aa")
		case o.AudioStream != "":
			return conflict("-an", "-as")
		case o.AudioFilters != "":
			return conflict("-an", "-af")
		}
		return nil
	case model.AudioCopy:
		switch {
		case o.AudioBitrateKbps != nil:
			return conflict("-acopy", "-ab")
		case o.VorbisQuality != nil:
			return conflict("-acopy", "-aq")
		case o.AudioFilters != "":
			return conflict("-acopy", "-af")
		}
		return nil
	case model.AudioOpus:
		if o.VorbisQuality != nil {
			return conflict("-opus", "-aq")
		}
	case model.AudioVorbis:
		if o.AudioBitrateKbps != nil {
			return conflict("-vorbis", "-ab")
		}
	case model.AudioUnset:
		if o.AudioBitrateKbps != nil && o.VorbisQuality != nil {
			return conflict("-ab", "-aq")
		}
	default:
		return invalid("-ac", "unknown audio mode %q", o.Audio)
	}
	if ab := o.AudioBitrateKbps; ab != nil && (*ab < 6 || *ab > 510) {
		return invalid("-ab", "opus bitrate must be in 6..510 range")
	}
	if aq := o.VorbisQuality; aq != nil && (*aq < -1 || *aq > 10) {
		return invalid("-aq", "vorbis quality level must be in -1..10 range")
	}
	return nil
}

func checkSubtitles(o *model.Options) error {
	s := o.Subtitles
	if s == nil {
		return nil
	}
	if !s.Burn() {
		if s.Index != nil {
			return invalid("-si", "you have not specified -sa")
		}
		if s.Delay != nil {
			return invalid("-sd", "you have not specified -sa")
		}
	}
	if s.Index != nil && *s.Index < 0 {
		return invalid("-si", "subtitle index must not be negative")
	}
	return nil
}

func checkInteractive(o *model.Options) error {
	if !o.Interactive {
		return nil
	}
	switch {
	case o.Trim.Start != nil:
		return conflict("-p", "-ss")
	case o.Trim.Duration != nil:
		return conflict("-p", "-t")
	case o.Trim.End != nil:
		return conflict("-p", "-to")
	case o.Crop != nil:
		return conflict("-p", "-crop")
	}
	return nil
}

func checkCover(o *model.Options) error {
	if o.Cover == nil {
		return nil
	}
	if o.ExternalAudio == "" {
		return invalid("-cover", "audio file must be provided with -aa")
	}
	if o.Subtitles.Burn() {
		return conflict("-cover", "-sa")
	}
	if o.Interactive {
		return conflict("-cover", "-p")
	}
	return nil
}

func checkMetadata(o *model.Options) error {
	m := o.Meta
	if !m.Strip {
		return nil
	}
	if m.Title != "" || m.TitleFromOutput {
		return conflict("-mn", "-mt")
	}
	if m.CreationTime {
		return conflict("-mn", "-mc")
	}
	return nil
}

func checkCrop(o *model.Options) error {
	c := o.Crop
	if c == nil {
		return nil
	}
	if c.W <= 0 || c.H <= 0 {
		return invalid("-crop", "width and height must be positive")
	}
	if c.X < 0 || c.Y < 0 {
		return invalid("-crop", "origin must not be negative")
	}
	return nil
}

// checkRaw makes sure every passthrough string splits into tokens.
func checkRaw(o *model.Options) error {
	raw := []struct{ flag, value string }{
		{"-foi", o.Raw.PreInput},
		{"-foi2", o.Raw.PostInput},
		{"-fo", o.Raw.Extra},
		{"-po", o.PlayerOpts},
	}
	if o.Cover != nil {
		raw = append(raw, struct{ flag, value string }{"-cover", *o.Cover})
	}
	for _, r := range raw {
		if _, err := shlex.Split(r.value); err != nil {
			return invalid(r.flag, "cannot split options: %v", err)
		}
	}
	return nil
}

// checkOutput keeps the default output name from replacing the main
// input, which is the audio file in cover mode.
func checkOutput(o *model.Options) error {
	in := o.InputPath
	if o.Cover != nil && o.ExternalAudio != "" {
		in = o.ExternalAudio
	}
	if o.OutputPath == "" {
		if strings.EqualFold(filepath.Ext(in), ".webm") {
			return invalid("outfile", "input is already .webm, specify output file please")
		}
		return nil
	}
	if samePath(in, o.OutputPath) || samePath(o.InputPath, o.OutputPath) {
		return invalid("outfile", "output would overwrite the input, specify another output file please")
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// applyDefaults runs the defaulting rules in order: audio codec, audio
// rate, compression effort, pass count, quality level.
func applyDefaults(o *model.Options) {
	if o.VideoCodec == "" {
		o.VideoCodec = model.CodecVP9
	}

	if o.Audio == model.AudioUnset {
		switch {
		case o.VorbisQuality != nil:
			o.Audio = model.AudioVorbis
		case o.AudioBitrateKbps != nil:
			o.Audio = model.AudioOpus
		case o.VideoCodec == model.CodecVP8:
			o.Audio = model.AudioVorbis
		default:
			o.Audio = model.AudioOpus
		}
	}
	switch o.Audio {
	case model.AudioOpus:
		if o.AudioBitrateKbps == nil {
			o.AudioBitrateKbps = intPtr(defaultOpusKbps)
		}
	case model.AudioVorbis:
		if o.VorbisQuality == nil {
			o.VorbisQuality = intPtr(defaultVorbisQ)
		}
	}

	if o.Effort == nil {
		o.Effort = intPtr(defaultEffort[o.VideoCodec])
	}
	if o.Passes == 0 {
		o.Passes = defaultPasses
	}
	if o.Threads == 0 {
		o.Threads = 1
	}

	qualityOnly := o.VideoBitrateKbps == nil && o.SizeLimitMiB == nil
	if o.VideoBitrateKbps != nil && *o.VideoBitrateKbps == 0 {
		qualityOnly = true
	}
	if qualityOnly && o.CRF == nil {
		crf := DefaultCRF
		if o.QMin != nil && crf < *o.QMin {
			crf = *o.QMin
		}
		if o.QMax != nil && crf > *o.QMax {
			crf = *o.QMax
		}
		o.CRF = intPtr(crf)
	}
}

func intPtr(v int) *int { return &v }
