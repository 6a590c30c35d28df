package cli

import (
	"reflect"
	"testing"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "single dash long flags",
			in:   []string{"-i", "in.mkv", "-vb", "500", "-crf=30", "out.webm"},
			want: []string{"-i", "in.mkv", "--vb", "500", "--crf=30", "out.webm"},
		},
		{
			name: "shorthand and negative values untouched",
			in:   []string{"-v", "-t", "10", "-aq", "-1", "-sd", "-10"},
			want: []string{"-v", "-t", "10", "--aq", "-1", "--sd", "-10"},
		},
		{
			name: "optional value consumes the next argument",
			in:   []string{"-sa", "subs.ass", "-i", "in.mkv"},
			want: []string{"--sa=subs.ass", "-i", "in.mkv"},
		},
		{
			name: "optional value alone",
			in:   []string{"-i", "art.jpg", "-cover", "-aa", "song.flac", "-mt"},
			want: []string{"-i", "art.jpg", "--cover", "--aa", "song.flac", "--mt"},
		},
		{
			name: "raw options keep their value",
			in:   []string{"-po=--mute", "-fo=-aspect 16:9"},
			want: []string{"--po=--mute", "--fo=-aspect 16:9"},
		},
		{
			name: "alias and double dash",
			in:   []string{"-hi", "--log-level", "debug", "--", "-vb"},
			want: []string{"--help-imode", "--log-level", "debug", "--", "-vb"},
		},
		{
			name: "unknown single dash left for pflag",
			in:   []string{"-xyz"},
			want: []string{"-xyz"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeArgs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
