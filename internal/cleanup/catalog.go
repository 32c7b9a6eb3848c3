package cleanup

import (
	"path"
	"regexp"
	"strings"
)

// Rule names files eligible for deletion, relative to the data directory,
// using forward slashes.
type Rule string

// DefaultCatalog is the list of leftovers removed after conversion.
var DefaultCatalog = []Rule{
	// conversion scripts
	"_convert_cd_fmv_xa.sh",
	"_convert_cd_fmv_xa.bat",
	"install/conv.sh",
	"install/conv.bat",
	// decoder settings; the game's own config.ini stays
	"install/jpsxdec.ini",
	"cutscene_recorder.ini",
	// disc images copied into install
	"install/*.bin",
	"install/*.iso",
	"install/*.cue",
	// console executables, not needed after extraction
	"install/SLUS_*.61",
	"install/SLUS_*.18",
	"install/SYSTEM.CNF",
	"install/all",
	// logs
	"REDRIVER2.log",
	"index.log",
	// stray index files
	"DRIVER2/*.idx",
	"DRIVER2/FMV/*.idx",
	"DRIVER2/XA/*.idx",
}

// IsGlob reports whether the rule contains a wildcard.
func (r Rule) IsGlob() bool {
	return strings.Contains(string(r), "*")
}

// Dir returns the rule's directory, relative to the data directory.
func (r Rule) Dir() string {
	return path.Dir(string(r))
}

// Name returns the last element of the rule.
func (r Rule) Name() string {
	return path.Base(string(r))
}

// matcher compiles the rule's last element into an anchored expression where
// `*` matches any run of characters.
func (r Rule) matcher() *regexp.Regexp {
	parts := strings.Split(r.Name(), "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
