package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveFiles(t *testing.T) {
	// Glob metacharacters in the directory must not matter.
	dir := filepath.Join(t.TempDir(), "clips [2024] *?")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"clip-passlog-0.log", "clip-passlog-0.log.mbtree", "keep.webm"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := RemoveFiles(
		filepath.Join(dir, "clip-passlog-0.log"),
		filepath.Join(dir, "clip-passlog-0.log.mbtree"),
		filepath.Join(dir, "missing.log"),
	)
	if err != nil {
		t.Fatalf("RemoveFiles() error = %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %d files, want 2: %v", len(removed), removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.webm")); err != nil {
		t.Errorf("unrelated file was removed: %v", err)
	}
}

func TestRemoveIfExists_Missing(t *testing.T) {
	if err := RemoveIfExists(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("RemoveIfExists() on missing file = %v, want nil", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "untitled"},
		{in: "my clip", want: "my_clip"},
		{in: "a_00:00:10-00:00:20", want: "a_00_00_10-00_00_20"},
		{in: "..//..", want: "untitled"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShellQuote(t *testing.T) {
	got := ShellQuote("ffmpeg", []string{"-i", "my file.mkv", "-vf", "subtitles='a'"})
	want := `ffmpeg -i 'my file.mkv' -vf 'subtitles='\''a'\'''`
	if got != want {
		t.Errorf("ShellQuote() = %s, want %s", got, want)
	}
}

func TestScanLinesCR(t *testing.T) {
	var lines []string
	data := []byte("frame=1\rframe=2\nend")
	for len(data) > 0 {
		adv, tok, _ := scanLinesCR(data, true)
		lines = append(lines, string(tok))
		data = data[adv:]
	}
	if len(lines) != 3 || lines[0] != "frame=1" || lines[2] != "end" {
		t.Errorf("scanLinesCR split = %q", lines)
	}
}
