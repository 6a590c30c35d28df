// Package deps locates ffmpeg and mpv and checks that they are recent
// enough and built with the encoders a plan needs.
package deps

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"webmfit/internal/model"
	"webmfit/internal/util"
)

const (
	minFFmpeg = ">= 2.0.0"
	minMPV    = ">= 0.17.0"
)

var (
	ffmpegVersionRe = regexp.MustCompile(`^ffmpeg version (\S+)`)
	mpvVersionRe    = regexp.MustCompile(`^mpv (\S+)`)
)

// MissingError means a required tool is absent, too old or lacks an
// encoder.
type MissingError struct {
	Tool   string
	Reason string
}

func (e *MissingError) Error() string {
	return e.Tool + ": " + e.Reason
}

// FindFFmpeg returns the ffmpeg path. A non-empty override (from
// WEBM_FFMPEG or the config) is used as given or looked up in PATH.
func FindFFmpeg(override string) (string, error) {
	return find("ffmpeg", override)
}

// FindPlayer returns the mpv path, with the same override rules.
func FindPlayer(override string) (string, error) {
	return find("mpv", override)
}

func find(tool, override string) (string, error) {
	name := tool
	if override != "" {
		if st, err := os.Stat(override); err == nil && !st.IsDir() {
			return override, nil
		}
		name = override
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", &MissingError{Tool: tool, Reason: fmt.Sprintf("could not find %q in PATH, please install %s", name, tool)}
	}
	return p, nil
}

// Need lists what a run requires.
type Need struct {
	FFmpeg   string // override, may be empty
	MPV      string // override, may be empty
	Player   bool   // interactive mode needs mpv
	Encoders []string
}

// Report describes the tools that were found.
type Report struct {
	FFmpegPath    string
	FFmpegVersion string
	MPVPath       string // empty when mpv was not needed and not found
	MPVVersion    string
	Encoders      []string // every encoder ffmpeg lists
}

// Check locates the tools, checks their versions and, when need lists
// encoders, that ffmpeg provides them. mpv is only an error when
// need.Player is set.
func Check(ctx context.Context, runner util.CmdRunner, need Need) (Report, error) {
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	var rep Report

	ff, err := FindFFmpeg(need.FFmpeg)
	if err != nil {
		return rep, err
	}
	rep.FFmpegPath = ff
	res, err := runner.Run(ctx, util.CmdSpec{Path: ff, Args: []string{"-version"}, CaptureStdout: true})
	if err != nil {
		return rep, &MissingError{Tool: "ffmpeg", Reason: fmt.Sprintf("%s -version failed: %v", ff, err)}
	}
	if rep.FFmpegVersion, err = checkVersion("ffmpeg", ffmpegVersionRe, string(res.Stdout), minFFmpeg); err != nil {
		return rep, err
	}

	res, err = runner.Run(ctx, util.CmdSpec{Path: ff, Args: []string{"-hide_banner", "-encoders"}, CaptureStdout: true})
	if err != nil {
		return rep, &MissingError{Tool: "ffmpeg", Reason: fmt.Sprintf("cannot list encoders: %v", err)}
	}
	rep.Encoders = ParseEncoders(string(res.Stdout))
	if missing := missingEncoders(rep.Encoders, need.Encoders); len(missing) > 0 {
		return rep, &MissingError{Tool: "ffmpeg", Reason: "not compiled with " + strings.Join(missing, ", ") + " support"}
	}

	mpv, err := FindPlayer(need.MPV)
	if err != nil {
		if need.Player {
			return rep, err
		}
		return rep, nil
	}
	rep.MPVPath = mpv
	res, err = runner.Run(ctx, util.CmdSpec{Path: mpv, Args: []string{"--version"}, CaptureStdout: true})
	if err != nil {
		if need.Player {
			return rep, &MissingError{Tool: "mpv", Reason: fmt.Sprintf("%s --version failed: %v", mpv, err)}
		}
		return rep, nil
	}
	rep.MPVVersion, err = checkVersion("mpv", mpvVersionRe, string(res.Stdout), minMPV)
	if err != nil && need.Player {
		return rep, err
	}
	return rep, nil
}

// checkVersion reads the version from the first line of out. Builds from
// git ("N-112233-g...") carry no release number and are accepted.
func checkVersion(tool string, re *regexp.Regexp, out, constraint string) (string, error) {
	first, _, _ := strings.Cut(out, "\n")
	m := re.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return "", &MissingError{Tool: tool, Reason: "cannot parse version"}
	}
	raw := m[1]
	ok, err := satisfies(raw, constraint)
	if err != nil {
		return raw, nil
	}
	if !ok {
		return raw, &MissingError{Tool: tool, Reason: fmt.Sprintf("version must be %s, using %s", constraint, raw)}
	}
	return raw, nil
}

// satisfies compares the release part of a distribution version string
// such as "4.4.2-0ubuntu0.22.04.1" or "n6.1" against constraint.
func satisfies(raw, constraint string) (bool, error) {
	release, _, _ := strings.Cut(strings.TrimPrefix(raw, "n"), "-")
	v, err := semver.NewVersion(release)
	if err != nil {
		return false, err
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// ParseEncoders returns the encoder names from "ffmpeg -encoders" output,
// sorted.
func ParseEncoders(out string) []string {
	var names []string
	past := false
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !past {
			// The legend ends with a " ------" separator line.
			past = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			names = append(names, fields[1])
		}
	}
	sort.Strings(names)
	return names
}

func missingEncoders(have, want []string) []string {
	var missing []string
	for _, w := range want {
		i := sort.SearchStrings(have, w)
		if i >= len(have) || have[i] != w {
			missing = append(missing, w)
		}
	}
	return missing
}

// RequiredEncoders lists the ffmpeg encoders validated options use.
func RequiredEncoders(o model.Options) []string {
	var enc []string
	switch o.VideoCodec {
	case model.CodecVP8:
		enc = append(enc, "libvpx")
	case model.CodecAV1:
		enc = append(enc, "libaom-av1")
	default:
		enc = append(enc, "libvpx-vp9")
	}
	switch o.Audio {
	case model.AudioOpus:
		enc = append(enc, "libopus")
	case model.AudioVorbis:
		enc = append(enc, "libvorbis")
	}
	return enc
}
