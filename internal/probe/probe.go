// Package probe reads stream facts from the banner ffmpeg prints for an
// input it is given without any output.
package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"webmfit/internal/encoder"
	"webmfit/internal/model"
	"webmfit/internal/util"
)

var (
	durationRe = regexp.MustCompile(`^\s+Duration: ([^,]+)`)
	hmsRe      = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2}(?:\.\d+)?)$`)
	videoRe    = regexp.MustCompile(`Stream #\d+:\d+.*: Video: .*?(\d{2,5})x(\d{2,5})`)
	audioRe    = regexp.MustCompile(`Stream #\d+:(\d+)[^:]*: Audio: `)
	kbpsRe     = regexp.MustCompile(`(\d+) kb/s`)
	tagRe      = regexp.MustCompile(`(?i)^\s+(title|album)\s*:\s*(.+)$`)
)

// ErrNoDuration is returned when the banner has no usable duration.
var ErrNoDuration = errors.New("could not read input duration")

// Probe runs "ffmpeg -hide_banner -i path" and parses what it prints.
// ffmpeg exits nonzero because no output is given; that is expected.
func Probe(ctx context.Context, runner util.CmdRunner, ffmpegPath, path string) (model.MediaInfo, error) {
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	res, err := runner.Run(ctx, util.CmdSpec{
		Path: ffmpegPath,
		Args: []string{"-hide_banner", "-i", path},
	})
	if err != nil && res.Code < 0 {
		return model.MediaInfo{}, &encoder.SubprocessFailureError{Tool: "ffmpeg", Code: -1, Err: err}
	}
	info, perr := Parse(string(res.Stderr))
	if perr != nil {
		return info, fmt.Errorf("probe %s: %w", path, perr)
	}
	return info, nil
}

// Parse extracts duration, first video size, the audio streams and the
// title tags from an ffmpeg input banner. When both album and title are
// present the title becomes "album - title".
func Parse(banner string) (model.MediaInfo, error) {
	var info model.MediaInfo
	var title, album string
	haveDuration := false

	sc := bufio.NewScanner(strings.NewReader(banner))
	for sc.Scan() {
		line := sc.Text()
		if m := durationRe.FindStringSubmatch(line); m != nil && !haveDuration {
			d, err := parseHMS(strings.TrimSpace(m[1]))
			if err != nil {
				return info, ErrNoDuration
			}
			info.Duration = d
			haveDuration = true
			continue
		}
		if m := videoRe.FindStringSubmatch(line); m != nil && info.Width == 0 {
			info.Width, _ = strconv.Atoi(m[1])
			info.Height, _ = strconv.Atoi(m[2])
			continue
		}
		if loc := audioRe.FindStringSubmatchIndex(line); loc != nil {
			var t model.AudioTrack
			t.Stream, _ = strconv.Atoi(line[loc[2]:loc[3]])
			if k := kbpsRe.FindStringSubmatch(line[loc[1]:]); k != nil {
				t.Kbps, _ = strconv.Atoi(k[1])
			}
			if len(info.AudioTracks) == 0 {
				info.AudioKbps = t.Kbps
			}
			info.AudioTracks = append(info.AudioTracks, t)
			continue
		}
		if m := tagRe.FindStringSubmatch(line); m != nil {
			v := strings.TrimSpace(m[2])
			switch tag := strings.ToLower(m[1]); {
			case tag == "title" && title == "":
				title = v
			case tag == "album" && album == "":
				album = v
			}
		}
	}
	if !haveDuration {
		return info, ErrNoDuration
	}

	info.Title = title
	if album != "" && title != "" {
		info.Title = album + " - " + title
	}
	return info, nil
}

func parseHMS(s string) (float64, error) {
	m := hmsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	sec, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, err
	}
	return float64(h*3600+mm*60) + sec, nil
}
