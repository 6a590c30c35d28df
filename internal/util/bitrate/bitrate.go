package bitrate

import (
	"fmt"
	"math"

	"webmfit/internal/model"
	"webmfit/internal/validate"
)

// KbitsPerMiB converts a size in MiB to kilobits (1 kbit = 1024 bits).
const KbitsPerMiB = 8192

// MinDuration is the shortest output window the planner accepts.
const MinDuration = 0.1

// Policy holds the tunable constants of the size fit.
type Policy struct {
	// ContainerOverhead is the fraction of the budget kept for muxing.
	ContainerOverhead float64
	// CopyAudioFallbackKbps is assumed for copied audio when the probe
	// could not read the source bitrate.
	CopyAudioFallbackKbps int
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{ContainerOverhead: 0.02, CopyAudioFallbackKbps: 128}
}

// Resolution is the planned video rate: either a bitrate in kbps or the
// quality-only marker.
type Resolution struct {
	Kbps        int
	QualityOnly bool
}

// SizeInfeasibleError means audio and overhead alone use up the budget.
type SizeInfeasibleError struct {
	LimitMiB   float64
	MinimumMiB float64
	Duration   float64
}

func (e *SizeInfeasibleError) Error() string {
	return fmt.Sprintf("size limit %.2f MiB is too small for %.1fs of output: audio alone needs at least %.2f MiB; raise the limit, shorten the clip or lower the audio bitrate",
		e.LimitMiB, e.Duration, e.MinimumMiB)
}

var vorbisKbps = map[int]int{
	-1: 45, 0: 64, 1: 80, 2: 96, 3: 112, 4: 128,
	5: 160, 6: 192, 7: 224, 8: 256, 9: 320, 10: 500,
}

// VorbisKbps returns the nominal bitrate of a Vorbis quality level.
func VorbisKbps(q int) int {
	if q < -1 {
		q = -1
	}
	if q > 10 {
		q = 10
	}
	return vorbisKbps[q]
}

// AudioKbps returns the audio bitrate the size fit has to reserve.
func AudioKbps(o model.Options, info model.MediaInfo, p Policy) int {
	switch o.Audio {
	case model.AudioOpus:
		if o.AudioBitrateKbps != nil {
			return *o.AudioBitrateKbps
		}
	case model.AudioVorbis:
		if o.VorbisQuality != nil {
			return VorbisKbps(*o.VorbisQuality)
		}
		return VorbisKbps(0)
	case model.AudioCopy:
		if k := info.AudioKbpsFor(o.AudioStream); k > 0 {
			return k
		}
		return p.CopyAudioFallbackKbps
	}
	return 0
}

// OutputDuration applies the trim window to the probed duration and
// rejects windows that fall outside the input.
func OutputDuration(o model.Options, info model.MediaInfo) (float64, error) {
	t := o.Trim
	start := t.StartOr()
	if start > info.Duration {
		return 0, &validate.ValidationError{Option: "-ss", Reason: fmt.Sprintf("too far input seek %gs (input has only %gs)", start, info.Duration)}
	}

	var out float64
	switch {
	case t.Duration != nil:
		if start+*t.Duration > info.Duration {
			return 0, &validate.ValidationError{Option: "-t", Reason: "end position too far in the future"}
		}
		out = *t.Duration
	case t.End != nil:
		if *t.End > info.Duration {
			return 0, &validate.ValidationError{Option: "-to", Reason: fmt.Sprintf("end position %gs too far in the future (input has only %gs)", *t.End, info.Duration)}
		}
		out = *t.End - start
	default:
		out = info.Duration - start
	}

	if out < MinDuration {
		return 0, &validate.ValidationError{Option: "-t", Reason: fmt.Sprintf("output duration %gs is too short", out)}
	}
	return out, nil
}

// Resolve picks the video bitrate. An explicit bitrate wins and 0 means
// quality-only; without a size limit the result is quality-only too.
// Otherwise the budget left after overhead and audio is spread over the
// output duration.
func Resolve(o model.Options, info model.MediaInfo, p Policy) (Resolution, error) {
	if o.VideoBitrateKbps != nil {
		if *o.VideoBitrateKbps == 0 {
			return Resolution{QualityOnly: true}, nil
		}
		return Resolution{Kbps: *o.VideoBitrateKbps}, nil
	}
	if o.SizeLimitMiB == nil {
		return Resolution{QualityOnly: true}, nil
	}

	dur, err := OutputDuration(o, info)
	if err != nil {
		return Resolution{}, err
	}

	limit := *o.SizeLimitMiB
	usable := 1 - p.ContainerOverhead
	audioKbits := float64(AudioKbps(o, info, p)) * dur
	videoKbits := limit*KbitsPerMiB*usable - audioKbits

	kbps := int(math.Floor(videoKbits / dur))
	if videoKbits <= 0 || kbps < 1 {
		return Resolution{}, &SizeInfeasibleError{
			LimitMiB:   limit,
			MinimumMiB: audioKbits / KbitsPerMiB / usable,
			Duration:   dur,
		}
	}
	return Resolution{Kbps: kbps}, nil
}

// EstimateMiB is the expected output size for the given rates, without
// container overhead.
func EstimateMiB(videoKbps, audioKbps int, dur float64) float64 {
	return float64(videoKbps+audioKbps) * dur / KbitsPerMiB
}
