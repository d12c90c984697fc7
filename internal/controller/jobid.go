package controller

import "strings"

// scriptExtensions are searched for, in order, within the argument list
// before falling back to the executable's own basename.
var scriptExtensions = []string{".py", ".ps1", ".bat", ".sh", ".js", ".rb", ".pl", ".r", ".m"}

// GenerateJobID derives a human-meaningful job id from an executable and
// its arguments. It scans args for the first path ending in a recognized
// script extension and uses that file's basename (extension stripped);
// failing that, it falls back to the executable's own basename.
//
// Paths are always parsed Windows-style (backslash or forward-slash
// separators) regardless of the host OS the controller runs on, since the
// paths being parsed describe files on the remote Windows agent, not on
// this machine.
func GenerateJobID(exe string, args []string) string {
	for _, arg := range args {
		if arg == "" {
			continue
		}
		lower := strings.ToLower(arg)
		for _, ext := range scriptExtensions {
			if strings.HasSuffix(lower, ext) {
				return stripExt(winBasename(arg))
			}
		}
	}

	return stripExt(winBasename(exe))
}

// winBasename returns the final path component of p, treating both '/' and
// '\' as separators.
func winBasename(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// stripExt removes the final "." extension from name, if any.
func stripExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
