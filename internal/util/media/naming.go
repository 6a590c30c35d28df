package media

import (
	"path/filepath"
	"strings"

	"webmfit/internal/model"
	"webmfit/internal/util"
	"webmfit/internal/util/format"
)

// OutputFilename derives the default output name from the main input and
// the trim window. It has no directory, so the file lands in the working
// directory:
//
//	base.webm
//	base_00:01:10-00:01:25.5.webm
//
// An unset start renders as 0 and an unset end as the end of the input.
// In cover mode the audio file is the main input.
func OutputFilename(o model.Options, info model.MediaInfo) string {
	in := o.InputPath
	if o.Cover != nil && o.ExternalAudio != "" {
		in = o.ExternalAudio
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if !o.Trim.IsSet() {
		return base + ".webm"
	}

	start := o.Trim.StartOr()
	end := info.Duration
	switch {
	case o.Trim.End != nil:
		end = *o.Trim.End
	case o.Trim.Duration != nil:
		end = start + *o.Trim.Duration
	}
	return base + "_" + format.Timestamp(start) + "-" + format.Timestamp(end) + ".webm"
}

// PassLogPrefix returns the pass-log prefix for an output path. Both passes
// of one encode share it; ffmpeg appends "-0.log" to it.
func PassLogPrefix(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	return filepath.Join(dir, "."+util.SanitizeFilename(base)+".passlog")
}

// Title picks the container title for the final pass: an explicit title
// wins, then the output basename when requested, then the probed input
// title in cover mode.
func Title(o model.Options, inputTitle string) string {
	switch {
	case o.Meta.Title != "":
		return o.Meta.Title
	case o.Meta.TitleFromOutput:
		return strings.TrimSuffix(filepath.Base(o.OutputPath), filepath.Ext(o.OutputPath))
	case o.Cover != nil:
		return inputTitle
	}
	return ""
}
