// Package cli adapts the single-dash long options of the classic webm
// command line to pflag.
package cli

import "strings"

// OptionalValue is stored in flags whose argument may be omitted (-sa,
// -cover, -mt) when the user gives the flag alone.
const OptionalValue = "*"

// longFlags are the multi-letter options that are written with a single
// dash, like ffmpeg does.
var longFlags = map[string]bool{
	"ss": true, "to": true,
	"vb": true, "crf": true, "qmin": true, "qmax": true,
	"vc": true, "vp8": true, "av1": true, "speed": true, "passes": true, "threads": true,
	"vw": true, "vh": true, "vs": true, "vf": true, "vfi": true, "crop": true,
	"an": true, "opus": true, "vorbis": true, "acopy": true,
	"ab": true, "aq": true, "aa": true, "as": true, "af": true,
	"sa": true, "si": true, "sd": true, "sf": true,
	"po": true, "cover": true,
	"mt": true, "mc": true, "mn": true,
	"fo": true, "foi": true, "foi2": true,
	"cn": true,
}

// aliases map single-dash spellings to a different long name.
var aliases = map[string]string{
	"hi": "help-imode",
}

// optionalValue flags take the next argument as their value unless it
// looks like an option.
var optionalValue = map[string]bool{
	"sa": true, "cover": true, "mt": true,
}

// NormalizeArgs rewrites "-vb 500" style options to "--vb 500" so that
// pflag does not read them as clusters of shorthand flags. For flags with
// an optional value, a following non-option argument is attached with
// "=". Arguments after "--" are left alone.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			out = append(out, args[i:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || strings.HasPrefix(a, "--") || len(a) < 3 {
			out = append(out, a)
			continue
		}
		name, value, hasValue := strings.Cut(a[1:], "=")
		long, ok := aliases[name]
		if !ok {
			if !longFlags[name] {
				out = append(out, a)
				continue
			}
			long = name
		}
		switch {
		case hasValue:
			out = append(out, "--"+long+"="+value)
		case optionalValue[long] && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-"):
			out = append(out, "--"+long+"="+args[i+1])
			i++
		default:
			out = append(out, "--"+long)
		}
	}
	return out
}
