package selector

import (
	"fmt"
	"io"
)

const usage = `Press "c" first time to mark the start of the fragment.
Press it again to mark the end of the fragment.
Press "KP1" after "c" to define the fragment from
the start to the marked time.
Press "KP3" after "c" to define the fragment from
the marked time to the end of the video.

Select crop area with the mouse and adjust it precisely with
KP4/KP8/KP6/KP2 (move crop area left/up/right/down) and
KP7/KP9/-/+ (decrease/increase width/height).
Press "a" when you finished with crop.
Also you can press KP5 to init crop area at the center of video.

Press "i" to dump info about currently selected video/audio/sub
tracks and subtitles delay from mpv.
Caution: it may redefine your appropriate passed options.

Press ENTER to confirm the selection and close the player.
Closing the player any other way cancels the encode.
`

const bindings = `You can redefine hotkeys by placing this to your input.conf and
changing the key (first column):

# These are the defaults:
c     script-binding webmfit_cut
KP1   script-binding webmfit_cut_from_start
KP3   script-binding webmfit_cut_to_end
a     script-binding webmfit_crop
KP5   script-binding webmfit_crop_init
KP7   script-binding webmfit_crop_w_dec
KP9   script-binding webmfit_crop_w_inc
-     script-binding webmfit_crop_h_dec
+     script-binding webmfit_crop_h_inc
KP4   script-binding webmfit_crop_x_dec
KP6   script-binding webmfit_crop_x_inc
KP8   script-binding webmfit_crop_y_dec
KP2   script-binding webmfit_crop_y_inc
i     script-binding webmfit_dump_info
ENTER script-binding webmfit_confirm

You also can change some default options by creating webmfit.conf in
your script-opts directory (see <https://mpv.io/manual/stable/#configuration>):

# These are the defaults:
crop_alpha=180  # Transparency of crop area
crop_x_step=2   # Precision of crop area adjusting from the keyboard
crop_y_step=2   # Precision of crop area adjusting from the keyboard
`

// PrintUsage writes the short guide shown when the player starts.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Running interactive mode.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Note: if your keyboard doesn't have keypad keys, pass "--help-imode"`)
	fmt.Fprintln(w, "to see how to rebind them.")
	fmt.Fprintln(w)
	fmt.Fprint(w, usage)
}

// PrintHelp writes the full interactive mode help, key bindings included.
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, usage)
	fmt.Fprintln(w)
	fmt.Fprint(w, bindings)
}
