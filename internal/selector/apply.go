package selector

import (
	"fmt"
	"strconv"
	"strings"

	"webmfit/internal/model"
	"webmfit/internal/util/format"
	"webmfit/internal/validate"
)

// Apply writes a captured selection into o. The result goes through the
// same validation as explicit flags; on any error o is left untouched.
func Apply(sel Selection, o *model.Options, info model.MediaInfo) error {
	if sel.Start != nil && sel.End != nil && *sel.End < *sel.Start {
		return &validate.ValidationError{
			Option: "-p",
			Reason: fmt.Sprintf("end mark %s is before start mark %s", format.Timestamp(*sel.End), format.Timestamp(*sel.Start)),
		}
	}
	if c := sel.Crop; c != nil && info.Width > 0 && info.Height > 0 {
		if c.X+c.W > info.Width || c.Y+c.H > info.Height {
			return &validate.ValidationError{
				Option: "-p",
				Reason: fmt.Sprintf("crop %dx%d+%d+%d is outside the %dx%d source", c.W, c.H, c.X, c.Y, info.Width, info.Height),
			}
		}
	}

	next := *o
	next.Interactive = false
	if sel.Start != nil || sel.End != nil {
		next.Trim = model.Trim{Start: sel.Start, End: sel.End}
	}
	if sel.Crop != nil {
		c := *sel.Crop
		next.Crop = &c
	}
	if sel.Info != nil {
		applyInfo(&next, *sel.Info)
	}

	validated, err := validate.Validate(next)
	if err != nil {
		return err
	}
	*o = validated
	return nil
}

func applyInfo(o *model.Options, in Info) {
	if in.VideoStream >= 0 {
		o.VideoStream = strconv.Itoa(in.VideoStream)
	}
	if in.AudioStream >= 0 {
		o.AudioStream = strconv.Itoa(in.AudioStream)
	}
	if in.AudioFile != "" {
		o.ExternalAudio = in.AudioFile
	}
	if in.SubIndex < 0 && in.SubFile == "" {
		return
	}
	sub := model.SubtitleSpec{}
	if o.Subtitles != nil {
		sub = *o.Subtitles
	}
	if in.SubFile != "" {
		sub.File, sub.FromInput = in.SubFile, false
	} else if sub.File == "" {
		sub.FromInput = true
	}
	if in.SubIndex >= 0 {
		idx := in.SubIndex
		sub.Index = &idx
	}
	if in.SubDelay != 0 {
		d := in.SubDelay
		sub.Delay = &d
	}
	o.Subtitles = &sub
}

// Summary renders the selection the way it is shown before confirming.
func Summary(sel Selection) string {
	var b strings.Builder
	if sel.Start != nil || sel.End != nil {
		from, to := "0", "EOF"
		if sel.Start != nil {
			from = format.Timestamp(*sel.Start)
		}
		if sel.End != nil {
			to = format.Timestamp(*sel.End)
		}
		fmt.Fprintf(&b, "[CUT] %s - %s\n", from, to)
	}
	if c := sel.Crop; c != nil {
		fmt.Fprintf(&b, "[CROP] x1=%d, y1=%d, width=%d, height=%d\n", c.X, c.Y, c.W, c.H)
	}
	if in := sel.Info; in != nil {
		parts := []string{"vs=" + strconv.Itoa(in.VideoStream)}
		if in.AudioStream >= 0 {
			parts = append(parts, "as="+strconv.Itoa(in.AudioStream))
		}
		if in.AudioFile != "" {
			parts = append(parts, "aa="+in.AudioFile)
		}
		if in.SubIndex >= 0 {
			parts = append(parts, "si="+strconv.Itoa(in.SubIndex))
		}
		if in.SubFile != "" {
			parts = append(parts, "sa="+in.SubFile)
		}
		if in.SubDelay != 0 {
			parts = append(parts, fmt.Sprintf("sd=%.2f", in.SubDelay))
		}
		fmt.Fprintf(&b, "[DUMP] %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}
