package encoder

import (
	"strconv"
	"strings"

	"webmfit/internal/model"
	"webmfit/internal/util/format"
)

// filterChain assembles the -vf graph: user insert filters, crop, scale,
// subtitle burn-in, then the user's generic filters.
func filterChain(o model.Options) string {
	var parts []string
	if o.VideoFiltersInsert != "" {
		parts = append(parts, o.VideoFiltersInsert)
	}
	if o.Crop != nil {
		parts = append(parts, o.Crop.Filter())
	}
	if o.Width != nil || o.Height != nil {
		parts = append(parts, "scale="+dim(o.Width)+":"+dim(o.Height))
	}
	if o.Subtitles.Burn() {
		parts = append(parts, subtitleStage(o)...)
	}
	if o.VideoFilters != "" {
		parts = append(parts, o.VideoFilters)
	}
	return strings.Join(parts, ",")
}

func dim(v *int) string {
	if v == nil {
		return "-1"
	}
	return strconv.Itoa(*v)
}

// subtitleStage shifts timestamps back to the source timeline for the
// subtitles filter, since input seeking restarts them at zero.
func subtitleStage(o model.Options) []string {
	s := o.Subtitles
	delay := o.Trim.StartOr()
	if s.Delay != nil {
		delay += *s.Delay
	}

	var stage []string
	if delay != 0 {
		stage = append(stage, "setpts=PTS+"+format.Seconds(delay)+"/TB")
	}

	src := s.File
	if s.FromInput {
		src = o.InputPath
	}
	sub := "subtitles=" + EscapeFilterValue(src)
	if s.Index != nil {
		sub += ":si=" + strconv.Itoa(*s.Index)
	}
	if s.ForceStyle != "" {
		sub += ":force_style=" + EscapeFilterValue(s.ForceStyle)
	}
	stage = append(stage, sub)

	if delay != 0 {
		stage = append(stage, "setpts=PTS-STARTPTS")
	}
	return stage
}

// EscapeFilterValue quotes a value for use as a filter option inside a
// filtergraph, covering both the option and the graph escaping levels.
func EscapeFilterValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `'\\\''`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	return "'" + s + "'"
}
