package cmd

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"webmfit/internal/cli"
	"webmfit/internal/config"
	"webmfit/internal/model"
	"webmfit/internal/util/format"
	"webmfit/internal/validate"
)

// optionsFromFlags builds the option model from parsed flags. It only
// converts values; range and conflict checks are left to validate.
func optionsFromFlags(fs *pflag.FlagSet, args []string, s config.Settings) (model.Options, error) {
	var o model.Options
	var err error
	f := flagReader{fs: fs}

	o.InputPath = f.str("input")
	if len(args) > 0 {
		o.OutputPath = args[0]
	}

	if o.Trim.Start, err = f.time("ss"); err != nil {
		return o, err
	}
	if o.Trim.Duration, err = f.time("duration"); err != nil {
		return o, err
	}
	if o.Trim.End, err = f.time("to"); err != nil {
		return o, err
	}

	o.SizeLimitMiB = f.float("limit")
	if vb := f.float("vb"); vb != nil {
		o.VideoBitrateKbps = roundKbps(*vb)
	}
	o.CRF = f.int("crf")
	o.QMin = f.int("qmin")
	o.QMax = f.int("qmax")
	// Without -l or -vb the clip is fitted to the configured limit; -crf
	// then constrains quality under the fitted bitrate. "-vb 0" is the way
	// to encode on quality alone.
	if o.SizeLimitMiB == nil && o.VideoBitrateKbps == nil {
		limit := s.DefaultLimitMiB
		o.SizeLimitMiB = &limit
	}

	if o.VideoCodec, err = videoCodec(f); err != nil {
		return o, err
	}
	o.Effort = f.int("speed")
	if p := f.int("passes"); p != nil {
		o.Passes = *p
	}
	o.Threads = runtime.NumCPU()
	if th := f.int("threads"); th != nil {
		o.Threads = *th
	}
	o.Width = f.int("vw")
	o.Height = f.int("vh")
	o.VideoStream = f.str("vs")
	o.VideoFilters = f.str("vf")
	o.VideoFiltersInsert = f.str("vfi")
	if c := f.str("crop"); c != "" {
		if o.Crop, err = parseCrop(c); err != nil {
			return o, err
		}
	}

	if o.Audio, err = audioMode(f); err != nil {
		return o, err
	}
	if ab := f.float("ab"); ab != nil {
		o.AudioBitrateKbps = roundKbps(*ab)
	}
	o.VorbisQuality = f.int("aq")
	o.ExternalAudio = f.str("aa")
	o.AudioStream = f.str("as")
	o.AudioFilters = f.str("af")

	o.Subtitles = subtitles(f)

	o.Interactive = f.bool("play")
	o.PlayerOpts = f.str("po")
	if fs.Changed("cover") {
		loop := f.str("cover")
		if loop == cli.OptionalValue {
			loop = ""
		}
		o.Cover = &loop
	}

	if fs.Changed("mt") {
		if t := f.str("mt"); t == cli.OptionalValue {
			o.Meta.TitleFromOutput = true
		} else {
			o.Meta.Title = t
		}
	}
	o.Meta.CreationTime = f.bool("mc")
	o.Meta.Strip = f.bool("mn")

	o.Raw = model.RawOptions{
		PreInput:  f.str("foi"),
		PostInput: f.str("foi2"),
		Extra:     f.str("fo"),
	}
	o.Verbose = f.bool("verbose")
	return o, nil
}

func videoCodec(f flagReader) (model.VideoCodec, error) {
	vc := model.VideoCodec(strings.ToLower(f.str("vc")))
	for _, alt := range []struct {
		flag  string
		codec model.VideoCodec
	}{{"vp8", model.CodecVP8}, {"av1", model.CodecAV1}} {
		if !f.bool(alt.flag) {
			continue
		}
		if vc != "" && vc != alt.codec {
			return "", &validate.ConflictError{A: "-" + alt.flag, B: "-vc " + string(vc)}
		}
		vc = alt.codec
	}
	return vc, nil
}

// audioMode folds the audio mode flags into the single codec field.
func audioMode(f flagReader) (model.AudioCodec, error) {
	modes := []struct {
		flag string
		mode model.AudioCodec
	}{
		{"an", model.AudioNone},
		{"acopy", model.AudioCopy},
		{"opus", model.AudioOpus},
		{"vorbis", model.AudioVorbis},
	}
	mode, set := model.AudioUnset, ""
	for _, m := range modes {
		if !f.bool(m.flag) {
			continue
		}
		if set != "" {
			return "", &validate.ConflictError{A: "-" + set, B: "-" + m.flag}
		}
		mode, set = m.mode, m.flag
	}
	return mode, nil
}

func subtitles(f flagReader) *model.SubtitleSpec {
	if !f.fs.Changed("sa") && !f.fs.Changed("si") && !f.fs.Changed("sd") && !f.fs.Changed("sf") {
		return nil
	}
	s := &model.SubtitleSpec{
		Index:      f.int("si"),
		Delay:      f.float("sd"),
		ForceStyle: f.str("sf"),
	}
	if f.fs.Changed("sa") {
		if file := f.str("sa"); file == cli.OptionalValue {
			s.FromInput = true
		} else {
			s.File = file
		}
	}
	return s
}

// parseCrop reads "w:h:x:y", the order of ffmpeg's crop filter.
func parseCrop(s string) (*model.CropRect, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return nil, &validate.ValidationError{Option: "-crop", Reason: fmt.Sprintf("want w:h:x:y, got %q", s)}
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &validate.ValidationError{Option: "-crop", Reason: fmt.Sprintf("bad number %q", p)}
		}
		v[i] = n
	}
	return &model.CropRect{W: v[0], H: v[1], X: v[2], Y: v[3]}, nil
}

func roundKbps(v float64) *int {
	n := int(math.Round(v))
	return &n
}

// flagReader returns pointers for flags the user set and nil otherwise.
type flagReader struct {
	fs *pflag.FlagSet
}

func (f flagReader) str(name string) string {
	v, _ := f.fs.GetString(name)
	return v
}

func (f flagReader) bool(name string) bool {
	v, _ := f.fs.GetBool(name)
	return v
}

func (f flagReader) int(name string) *int {
	if !f.fs.Changed(name) {
		return nil
	}
	v, _ := f.fs.GetInt(name)
	return &v
}

func (f flagReader) float(name string) *float64 {
	if !f.fs.Changed(name) {
		return nil
	}
	v, _ := f.fs.GetFloat64(name)
	return &v
}

func (f flagReader) time(name string) (*float64, error) {
	if !f.fs.Changed(name) {
		return nil, nil
	}
	raw := f.str(name)
	secs, err := format.ParseTime(raw)
	if err != nil {
		opt := "-" + name
		if name == "duration" {
			opt = "-t"
		}
		return nil, &validate.ValidationError{Option: opt, Reason: err.Error()}
	}
	return &secs, nil
}
