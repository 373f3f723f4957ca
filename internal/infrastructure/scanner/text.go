package scanner

import (
	"bytes"
	"path"
	"regexp"
	"strings"

	"github.com/dbankscard/hookguard/internal/domain"
)

// skippedExtensions are never scanned in a batch.
var skippedExtensions = []string{".md", ".txt", ".log", ".gitignore", ".dockerignore"}

// docExtensions never produce secret findings.
var docExtensions = []string{".md", ".rst", ".txt"}

var commentPrefixes = []string{"#", "//", "/*", "*"}

// SkipFile reports whether a batch should ignore path entirely.
func SkipFile(p string) bool {
	return hasAnySuffix(strings.ToLower(p), skippedExtensions)
}

// IsBinary reports whether content has a NUL byte in its leading chunk.
func IsBinary(content []byte) bool {
	probe := content
	if len(probe) > domain.BinaryProbeSize {
		probe = probe[:domain.BinaryProbeSize]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

// Redact masks a secret. Values up to eight characters are fully masked,
// longer ones keep three characters on each side.
func Redact(value string) string {
	runes := []rune(value)
	if len(runes) <= domain.RedactionFullMaskMax {
		return strings.Repeat("*", len(runes))
	}
	keep := domain.RedactionVisible
	return string(runes[:keep]) + strings.Repeat("*", len(runes)-2*keep) + string(runes[len(runes)-keep:])
}

func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func isComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func extension(p string) string {
	return strings.ToLower(path.Ext(p))
}

// stringLiteral matches double, single and backtick quoted literals.
var stringLiteral = regexp.MustCompile("\"(?:[^\"\\\\]|\\\\.)*\"|'(?:[^'\\\\]|\\\\.)*'|`[^`]*`")

// maskLiterals redacts the body of every quoted literal on a line. The code
// around the literals stays readable.
func maskLiterals(line string) string {
	return stringLiteral.ReplaceAllStringFunc(line, func(lit string) string {
		quote := lit[:1]
		body := lit[1 : len(lit)-1]
		if body == "" {
			return lit
		}
		return quote + Redact(body) + quote
	})
}

// evidence is the stored excerpt of a source line: literals masked,
// whitespace trimmed, long lines cut.
func evidence(line string) string {
	const limit = 160
	trimmed := strings.TrimSpace(maskLiterals(line))
	if r := []rune(trimmed); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return trimmed
}
