package encoder

import (
	"fmt"
	"strconv"

	"webmfit/internal/model"
	"webmfit/internal/util/bitrate"
)

// videoTemplate returns the encoder selection and its speed knobs.
type videoTemplate func(effort, pass, passes int) []string

var videoTemplates = map[model.VideoCodec]videoTemplate{
	model.CodecVP8: func(effort, _, _ int) []string {
		return []string{"-c:v", "libvpx", "-speed", strconv.Itoa(effort)}
	},
	model.CodecVP9: func(effort, pass, passes int) []string {
		// libvpx-vp9 ignores most of the analysis pass, so run it fast.
		if passes == 2 && pass == 1 && effort < 4 {
			effort = 4
		}
		return []string{
			"-c:v", "libvpx-vp9", "-speed", strconv.Itoa(effort),
			"-tile-columns", "6", "-frame-parallel", "0",
		}
	},
	model.CodecAV1: func(effort, _, _ int) []string {
		return []string{
			"-c:v", "libaom-av1", "-cpu-used", strconv.Itoa(effort),
			"-row-mt", "1", "-tiles", "2x2",
		}
	},
}

func videoArgs(o model.Options, res bitrate.Resolution, pass int) ([]string, error) {
	tmpl, ok := videoTemplates[o.VideoCodec]
	if !ok {
		return nil, fmt.Errorf("no encoder template for video codec %q", o.VideoCodec)
	}
	effort := 0
	if o.Effort != nil {
		effort = *o.Effort
	}
	args := tmpl(effort, pass, o.Passes)

	vb := "0"
	if !res.QualityOnly {
		vb = strconv.Itoa(res.Kbps) + "k"
	}
	threads := o.Threads
	if threads < 1 {
		threads = 1
	}
	args = append(args,
		"-b:v", vb,
		"-threads", strconv.Itoa(threads),
		"-auto-alt-ref", "1",
		"-lag-in-frames", "25",
		"-g", "9999",
		"-pix_fmt", "yuv420p",
	)
	if o.CRF != nil {
		args = append(args, "-crf", strconv.Itoa(*o.CRF))
	}
	if o.QMin != nil {
		args = append(args, "-qmin", strconv.Itoa(*o.QMin))
	}
	if o.QMax != nil {
		args = append(args, "-qmax", strconv.Itoa(*o.QMax))
	}
	return args, nil
}

// audioArgs never encodes audio on the analysis pass.
func audioArgs(o model.Options, pass int) ([]string, error) {
	if o.Passes == 2 && pass == 1 {
		return []string{"-an"}, nil
	}
	var args []string
	switch o.Audio {
	case model.AudioNone:
		return []string{"-an"}, nil
	case model.AudioCopy:
		return []string{"-c:a", "copy"}, nil
	case model.AudioOpus:
		kbps := 64
		if o.AudioBitrateKbps != nil {
			kbps = *o.AudioBitrateKbps
		}
		args = []string{"-ac", "2", "-c:a", "libopus", "-b:a", strconv.Itoa(kbps) + "k"}
	case model.AudioVorbis:
		q := 0
		if o.VorbisQuality != nil {
			q = *o.VorbisQuality
		}
		args = []string{"-ac", "2", "-c:a", "libvorbis", "-q:a", strconv.Itoa(q)}
	default:
		return nil, fmt.Errorf("no encoder template for audio codec %q", o.Audio)
	}
	if o.AudioFilters != "" {
		args = append(args, "-af", o.AudioFilters)
	}
	return args, nil
}
