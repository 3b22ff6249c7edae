package report

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ColorProfile names the terminal color capability the reporter styles its
// output for, per spec.md §6's "the reporter consults terminal
// capabilities for color selection (24bit, 8bit, named, none)".
type ColorProfile string

const (
	Profile24Bit ColorProfile = "24bit"
	Profile8Bit  ColorProfile = "8bit"
	ProfileNamed ColorProfile = "named"
	ProfileNone  ColorProfile = "none"
)

// DetectProfile probes f's terminal capability, grounded on
// replicate-cog/pkg/util/console's isatty.IsTerminal gate, extended with a
// COLORTERM/TERM capability tier since spec.md distinguishes more than
// on/off.
func DetectProfile(f *os.File) ColorProfile {
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return ProfileNone
	}
	switch strings.ToLower(os.Getenv("COLORTERM")) {
	case "truecolor", "24bit":
		return Profile24Bit
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if term == "" || term == "dumb" {
		return ProfileNone
	}
	if strings.Contains(term, "256color") {
		return Profile8Bit
	}
	return ProfileNamed
}
