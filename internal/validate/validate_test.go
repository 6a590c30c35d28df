package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmfit/internal/model"
)

func ptr[T any](v T) *T { return &v }

func base() model.Options {
	return model.Options{InputPath: "in.mkv"}
}

func TestValidate_Conflicts(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*model.Options)
		wantA string
		wantB string
	}{
		{
			name:  "strip audio with audio bitrate",
			mod:   func(o *model.Options) { o.Audio = model.AudioNone; o.AudioBitrateKbps = ptr(96) },
			wantA: "-an", wantB: "-ab",
		},
		{
			name:  "strip audio with external audio",
			mod:   func(o *model.Options) { o.Audio = model.AudioNone; o.ExternalAudio = "song.flac" },
			wantA: "-an", wantB: "-aa",
		},
		{
			name:  "copy audio with filters",
			mod:   func(o *model.Options) { o.Audio = model.AudioCopy; o.AudioFilters = "volume=2" },
			wantA: "-acopy", wantB: "-af",
		},
		{
			name:  "opus with vorbis quality",
			mod:   func(o *model.Options) { o.Audio = model.AudioOpus; o.VorbisQuality = ptr(3) },
			wantA: "-opus", wantB: "-aq",
		},
		{
			name:  "vorbis with bitrate",
			mod:   func(o *model.Options) { o.Audio = model.AudioVorbis; o.AudioBitrateKbps = ptr(64) },
			wantA: "-vorbis", wantB: "-ab",
		},
		{
			name:  "size limit with explicit bitrate",
			mod:   func(o *model.Options) { o.SizeLimitMiB = ptr(8.0); o.VideoBitrateKbps = ptr(500) },
			wantA: "-l", wantB: "-vb",
		},
		{
			name:  "duration with end",
			mod:   func(o *model.Options) { o.Trim.Duration = ptr(5.0); o.Trim.End = ptr(9.0) },
			wantA: "-t", wantB: "-to",
		},
		{
			name:  "interactive with seek",
			mod:   func(o *model.Options) { o.Interactive = true; o.Trim.Start = ptr(1.0) },
			wantA: "-p", wantB: "-ss",
		},
		{
			name:  "interactive with crop",
			mod:   func(o *model.Options) { o.Interactive = true; o.Crop = &model.CropRect{W: 10, H: 10} },
			wantA: "-p", wantB: "-crop",
		},
		{
			name: "cover with subtitles",
			mod: func(o *model.Options) {
				o.Cover = ptr("")
				o.ExternalAudio = "a.flac"
				o.Subtitles = &model.SubtitleSpec{FromInput: true}
			},
			wantA: "-cover", wantB: "-sa",
		},
		{
			name:  "cover with interactive",
			mod:   func(o *model.Options) { o.Cover = ptr(""); o.ExternalAudio = "a.flac"; o.Interactive = true },
			wantA: "-cover", wantB: "-p",
		},
		{
			name:  "strip metadata with title",
			mod:   func(o *model.Options) { o.Meta = model.Metadata{Strip: true, TitleFromOutput: true} },
			wantA: "-mn", wantB: "-mt",
		},
		{
			name:  "strip metadata with creation time",
			mod:   func(o *model.Options) { o.Meta = model.Metadata{Strip: true, CreationTime: true} },
			wantA: "-mn", wantB: "-mc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mod(&o)
			_, err := Validate(o)
			var ce *ConflictError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantA, ce.A)
			assert.Equal(t, tt.wantB, ce.B)
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name       string
		mod        func(*model.Options)
		wantOption string
	}{
		{name: "missing input", mod: func(o *model.Options) { o.InputPath = "" }, wantOption: "-i"},
		{name: "crf above range", mod: func(o *model.Options) { o.CRF = ptr(64) }, wantOption: "-crf"},
		{name: "qmin above qmax", mod: func(o *model.Options) { o.QMin = ptr(40); o.QMax = ptr(30) }, wantOption: "-qmin"},
		{name: "crf outside bounds", mod: func(o *model.Options) { o.QMin = ptr(10); o.CRF = ptr(5) }, wantOption: "-crf"},
		{name: "opus bitrate too low", mod: func(o *model.Options) { o.AudioBitrateKbps = ptr(5) }, wantOption: "-ab"},
		{name: "opus bitrate too high", mod: func(o *model.Options) { o.AudioBitrateKbps = ptr(511) }, wantOption: "-ab"},
		{name: "vorbis quality too high", mod: func(o *model.Options) { o.VorbisQuality = ptr(11) }, wantOption: "-aq"},
		{name: "effort too high", mod: func(o *model.Options) { o.Effort = ptr(9) }, wantOption: "-speed"},
		{name: "zero duration", mod: func(o *model.Options) { o.Trim.Duration = ptr(0.0) }, wantOption: "-t"},
		{name: "end before start", mod: func(o *model.Options) { o.Trim.Start = ptr(10.0); o.Trim.End = ptr(4.0) }, wantOption: "-to"},
		{name: "non-positive limit", mod: func(o *model.Options) { o.SizeLimitMiB = ptr(0.0) }, wantOption: "-l"},
		{name: "three passes", mod: func(o *model.Options) { o.Passes = 3 }, wantOption: "-passes"},
		{name: "subtitle index without source", mod: func(o *model.Options) { o.Subtitles = &model.SubtitleSpec{Index: ptr(1)} }, wantOption: "-si"},
		{name: "cover without audio", mod: func(o *model.Options) { o.Cover = ptr("") }, wantOption: "-cover"},
		{name: "empty crop", mod: func(o *model.Options) { o.Crop = &model.CropRect{W: 0, H: 10} }, wantOption: "-crop"},
		{name: "webm input without output", mod: func(o *model.Options) { o.InputPath = "clip.webm" }, wantOption: "outfile"},
		{name: "output equals input", mod: func(o *model.Options) { o.OutputPath = "./in.mkv" }, wantOption: "outfile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mod(&o)
			_, err := Validate(o)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantOption, ve.Option)
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		mod        func(*model.Options)
		wantCodec  model.VideoCodec
		wantAudio  model.AudioCodec
		wantEffort int
		wantCRF    *int
	}{
		{
			name:       "modern codec defaults",
			mod:        func(o *model.Options) {},
			wantCodec:  model.CodecVP9,
			wantAudio:  model.AudioOpus,
			wantEffort: 1,
			wantCRF:    ptr(DefaultCRF),
		},
		{
			name:       "legacy codec picks vorbis",
			mod:        func(o *model.Options) { o.VideoCodec = model.CodecVP8; o.SizeLimitMiB = ptr(8.0) },
			wantCodec:  model.CodecVP8,
			wantAudio:  model.AudioVorbis,
			wantEffort: 0,
		},
		{
			name:       "next-generation codec effort",
			mod:        func(o *model.Options) { o.VideoCodec = model.CodecAV1; o.VideoBitrateKbps = ptr(900) },
			wantCodec:  model.CodecAV1,
			wantAudio:  model.AudioOpus,
			wantEffort: 4,
		},
		{
			name:       "vorbis quality implies vorbis",
			mod:        func(o *model.Options) { o.VorbisQuality = ptr(4); o.SizeLimitMiB = ptr(4.0) },
			wantCodec:  model.CodecVP9,
			wantAudio:  model.AudioVorbis,
			wantEffort: 1,
		},
		{
			name:       "explicit zero bitrate gets a quality level",
			mod:        func(o *model.Options) { o.VideoBitrateKbps = ptr(0) },
			wantCodec:  model.CodecVP9,
			wantAudio:  model.AudioOpus,
			wantEffort: 1,
			wantCRF:    ptr(DefaultCRF),
		},
		{
			name:       "default quality clamped to qmin",
			mod:        func(o *model.Options) { o.QMin = ptr(40) },
			wantCodec:  model.CodecVP9,
			wantAudio:  model.AudioOpus,
			wantEffort: 1,
			wantCRF:    ptr(40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mod(&o)
			got, err := Validate(o)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCodec, got.VideoCodec)
			assert.Equal(t, tt.wantAudio, got.Audio)
			require.NotNil(t, got.Effort)
			assert.Equal(t, tt.wantEffort, *got.Effort)
			assert.Equal(t, tt.wantCRF, got.CRF)
			assert.Equal(t, 2, got.Passes)
		})
	}
}

func TestValidate_AudioRateDefaults(t *testing.T) {
	got, err := Validate(base())
	require.NoError(t, err)
	require.NotNil(t, got.AudioBitrateKbps)
	assert.Equal(t, 64, *got.AudioBitrateKbps)
	assert.Nil(t, got.VorbisQuality)

	o := base()
	o.Audio = model.AudioVorbis
	got, err = Validate(o)
	require.NoError(t, err)
	require.NotNil(t, got.VorbisQuality)
	assert.Equal(t, 0, *got.VorbisQuality)
	assert.Nil(t, got.AudioBitrateKbps)
}

func TestValidate_Idempotent(t *testing.T) {
	o := base()
	o.SizeLimitMiB = ptr(6.0)
	o.Trim.Start = ptr(3.0)
	o.Subtitles = &model.SubtitleSpec{FromInput: true, Index: ptr(0)}

	first, err := Validate(o)
	require.NoError(t, err)
	second, err := Validate(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidate_DoesNotTouchInput(t *testing.T) {
	o := base()
	before := o
	_, err := Validate(o)
	require.NoError(t, err)
	assert.Equal(t, before, o)
	assert.Nil(t, o.Effort)
}

func TestErrorMessages(t *testing.T) {
	err := error(&ConflictError{A: "-an", B: "-ab"})
	assert.Equal(t, "you cannot use -an with -ab", err.Error())

	err = &ValidationError{Option: "-crf", Reason: "must be in 0..63 range"}
	assert.Equal(t, "-crf: must be in 0..63 range", err.Error())

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestValidate_RawOptionsMustSplit(t *testing.T) {
	o := base()
	o.Raw.Extra = `-metadata comment="unterminated`
	_, err := Validate(o)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "-fo", ve.Option)

	o.Raw.Extra = `-metadata comment="two words"`
	_, err = Validate(o)
	assert.NoError(t, err)
}
