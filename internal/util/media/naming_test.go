package media

import (
	"path/filepath"
	"testing"

	"webmfit/internal/model"
)

func f64(v float64) *float64 { return &v }

func TestOutputFilename(t *testing.T) {
	info := model.MediaInfo{Duration: 3600}
	tests := []struct {
		name string
		trim model.Trim
		want string
	}{
		{name: "no trim", want: "clip.webm"},
		{name: "start and end", trim: model.Trim{Start: f64(70), End: f64(85.5)}, want: "clip_00:01:10-00:01:25.5.webm"},
		{name: "start only runs to end", trim: model.Trim{Start: f64(3000)}, want: "clip_00:50:00-01:00:00.webm"},
		{name: "duration", trim: model.Trim{Start: f64(1), Duration: f64(2)}, want: "clip_00:00:01-00:00:03.webm"},
		{name: "end only", trim: model.Trim{End: f64(12)}, want: "clip_00:00:00-00:00:12.webm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := model.Options{InputPath: "/videos/clip.mkv", Trim: tt.trim}
			if got := OutputFilename(o, info); got != tt.want {
				t.Errorf("OutputFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputFilename_CoverUsesAudio(t *testing.T) {
	cover := ""
	o := model.Options{InputPath: "art.jpg", ExternalAudio: "/music/song.flac", Cover: &cover}
	if got := OutputFilename(o, model.MediaInfo{}); got != "song.webm" {
		t.Errorf("OutputFilename() = %q, want song.webm", got)
	}
}

func TestPassLogPrefix(t *testing.T) {
	got := PassLogPrefix("/out/my clip_00:00:01-00:00:03.webm")
	want := filepath.FromSlash("/out/.my_clip_00_00_01-00_00_03.passlog")
	if got != want {
		t.Errorf("PassLogPrefix() = %q, want %q", got, want)
	}
	if PassLogPrefix("/out/a.webm") != PassLogPrefix("/out/a.webm") {
		t.Error("PassLogPrefix() is not stable")
	}
}

func TestTitle(t *testing.T) {
	cover := ""
	tests := []struct {
		name string
		opts model.Options
		want string
	}{
		{name: "explicit", opts: model.Options{Meta: model.Metadata{Title: "Hello"}}, want: "Hello"},
		{name: "from output", opts: model.Options{OutputPath: "/x/song.webm", Meta: model.Metadata{TitleFromOutput: true}}, want: "song"},
		{name: "cover uses input title", opts: model.Options{Cover: &cover}, want: "Album - Track"},
		{name: "none", opts: model.Options{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.opts, "Album - Track"); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}
