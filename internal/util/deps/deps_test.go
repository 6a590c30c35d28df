package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmfit/internal/model"
	"webmfit/internal/util"
)

const encodersOut = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libvpx               libvpx VP8 (codec vp8)
 V....D libvpx-vp9           libvpx VP9 (codec vp9)
 A....D libopus              libopus Opus (codec opus)
 A....D aac                  AAC (Advanced Audio Coding)
`

type fakeRunner struct {
	out map[string]string // keyed by first argument
}

func (f fakeRunner) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	key := spec.Args[0]
	if key == "-hide_banner" {
		key = spec.Args[1]
	}
	out, ok := f.out[key]
	if !ok {
		err := errors.New("exit status 1")
		return util.CmdResult{Code: 1, Err: err}, err
	}
	return util.CmdResult{Stdout: []byte(out)}, nil
}

// fakeTool creates an executable file so that FindFFmpeg and FindPlayer
// accept it as an override.
func fakeTool(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755))
	return p
}

func TestParseEncoders(t *testing.T) {
	assert.Equal(t, []string{"aac", "libopus", "libvpx", "libvpx-vp9"}, ParseEncoders(encodersOut))
	assert.Empty(t, ParseEncoders("no legend here\n"))
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		raw        string
		constraint string
		want       bool
		wantErr    bool
	}{
		{raw: "6.1.1", constraint: minFFmpeg, want: true},
		{raw: "4.4.2-0ubuntu0.22.04.1", constraint: minFFmpeg, want: true},
		{raw: "n7.0", constraint: minFFmpeg, want: true},
		{raw: "1.2.6", constraint: minFFmpeg, want: false},
		{raw: "N-112233-gdeadbeef", constraint: minFFmpeg, wantErr: true},
		{raw: "0.16.0", constraint: minMPV, want: false},
		{raw: "v0.37.0", constraint: minMPV, want: true},
	}
	for _, tt := range tests {
		got, err := satisfies(tt.raw, tt.constraint)
		if (err != nil) != tt.wantErr {
			t.Errorf("satisfies(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("satisfies(%q, %q) = %v, want %v", tt.raw, tt.constraint, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	ff := fakeTool(t, "ffmpeg")
	mpv := fakeTool(t, "mpv")
	good := map[string]string{
		"-version":  "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers\nbuilt with gcc 13\n",
		"-encoders": encodersOut,
		"--version": "mpv 0.37.0 Copyright © 2000-2023 mpv/MPlayer/mplayer2 projects\n",
	}

	rep, err := Check(context.Background(), fakeRunner{out: good}, Need{
		FFmpeg: ff, MPV: mpv, Player: true,
		Encoders: []string{"libvpx-vp9", "libopus"},
	})
	require.NoError(t, err)
	assert.Equal(t, ff, rep.FFmpegPath)
	assert.Equal(t, "6.1.1", rep.FFmpegVersion)
	assert.Equal(t, "0.37.0", rep.MPVVersion)
}

func TestCheck_Failures(t *testing.T) {
	ff := fakeTool(t, "ffmpeg")
	mpv := fakeTool(t, "mpv")
	tests := []struct {
		name string
		out  map[string]string
		need Need
		want string
	}{
		{
			name: "old ffmpeg",
			out:  map[string]string{"-version": "ffmpeg version 1.2.6\n"},
			need: Need{FFmpeg: ff},
			want: "version must be",
		},
		{
			name: "missing encoder",
			out:  map[string]string{"-version": "ffmpeg version 6.0\n", "-encoders": encodersOut},
			need: Need{FFmpeg: ff, Encoders: []string{"libaom-av1", "libopus"}},
			want: "libaom-av1",
		},
		{
			name: "old mpv when needed",
			out:  map[string]string{"-version": "ffmpeg version 6.0\n", "-encoders": encodersOut, "--version": "mpv 0.16.0\n"},
			need: Need{FFmpeg: ff, MPV: mpv, Player: true},
			want: "mpv: version must be",
		},
		{
			name: "unparsable ffmpeg",
			out:  map[string]string{"-version": "something else\n"},
			need: Need{FFmpeg: ff},
			want: "cannot parse version",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Check(context.Background(), fakeRunner{out: tt.out}, tt.need)
			var me *MissingError
			require.ErrorAs(t, err, &me)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheck_GitBuildAndOptionalPlayer(t *testing.T) {
	ff := fakeTool(t, "ffmpeg")
	mpv := fakeTool(t, "mpv")
	out := map[string]string{
		"-version":  "ffmpeg version N-112233-gdeadbeef Copyright\n",
		"-encoders": encodersOut,
		"--version": "mpv 0.16.0\n",
	}
	rep, err := Check(context.Background(), fakeRunner{out: out}, Need{FFmpeg: ff, MPV: mpv})
	require.NoError(t, err, "old mpv is fine when not needed")
	assert.Equal(t, "N-112233-gdeadbeef", rep.FFmpegVersion)
}

func TestFind_MissingOverride(t *testing.T) {
	_, err := FindFFmpeg(filepath.Join(t.TempDir(), "no-such-ffmpeg"))
	var me *MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "ffmpeg", me.Tool)
}

func TestRequiredEncoders(t *testing.T) {
	tests := []struct {
		opts model.Options
		want []string
	}{
		{opts: model.Options{VideoCodec: model.CodecVP9, Audio: model.AudioOpus}, want: []string{"libvpx-vp9", "libopus"}},
		{opts: model.Options{VideoCodec: model.CodecVP8, Audio: model.AudioVorbis}, want: []string{"libvpx", "libvorbis"}},
		{opts: model.Options{VideoCodec: model.CodecAV1, Audio: model.AudioCopy}, want: []string{"libaom-av1"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RequiredEncoders(tt.opts))
	}
}
