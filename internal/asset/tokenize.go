package asset

import "strings"

// Suffixes accepted after a platform token when the name has a dot after it.
var archiveSuffixes = []string{".gz", ".tgz", ".bz2", ".zip", ".exe"}

// Installer packages that are never run directly.
var packageSuffixes = []string{".rpm", ".deb", ".dmg", ".flatpak", ".msi"}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// wordStarts splits name on non-alphanumeric characters and returns the
// byte offset at which each alphanumeric word begins.
//
//	"tool-x86_64-linux.tar.gz" -> [0 5 9 12 18 22]
func wordStarts(name string) []int {
	var starts []int
	for i := 0; i < len(name); i++ {
		if !isAlnum(name[i]) {
			continue
		}
		if i == 0 || !isAlnum(name[i-1]) {
			starts = append(starts, i)
		}
	}
	return starts
}

// acceptsRemainder reports whether the text after a matched token ends the
// name acceptably: either no further dot (an extensionless binary, possibly
// with a suffix like "-musl") or an archive/executable extension.
func acceptsRemainder(rest string) bool {
	if !strings.Contains(rest, ".") {
		return true
	}
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(rest, suffix) {
			return true
		}
	}
	return false
}

// matchName reports whether lowered asset name contains one of tokens at a
// word start, followed by an acceptable remainder.
func matchName(lower string, tokens []string) bool {
	for _, start := range wordStarts(lower) {
		tail := lower[start:]
		for _, tok := range tokens {
			if strings.HasPrefix(tail, tok) && acceptsRemainder(tail[len(tok):]) {
				return true
			}
		}
	}
	return false
}

func isPackage(lower string) bool {
	for _, suffix := range packageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
