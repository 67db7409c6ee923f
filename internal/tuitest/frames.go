package tuitest

import (
	"regexp"
	"strings"
)

var (
	frameBoundary = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	csiPattern    = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
	oscPattern    = regexp.MustCompile(`\x1b\][^\x07]*(\x07|\x1b\\)`)
)

// parseFrames splits the raw stream on erase-display sequences and strips
// the remaining escape codes, leaving one plain-text string per render.
func parseFrames(raw []byte) []string {
	cleaned := strings.ReplaceAll(string(raw), "\r", "")
	var frames []string
	for _, segment := range frameBoundary.Split(cleaned, -1) {
		plain := normalize(stripANSI(segment))
		if strings.TrimSpace(plain) == "" {
			continue
		}
		frames = append(frames, plain)
	}
	if len(frames) == 0 && len(cleaned) > 0 {
		if plain := normalize(stripANSI(cleaned)); strings.TrimSpace(plain) != "" {
			frames = append(frames, plain)
		}
	}
	return frames
}

func stripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = csiPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\x0f", "")
	s = strings.ReplaceAll(s, "\x0e", "")
	return strings.Trim(s, "\x00")
}

func normalize(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
