package ffmpeg

import "strings"

// ParseLogLevel extracts the level from a line written with -loglevel level+X.
// Lines look like "[warning] message" or "[component @ 0x...] [warning] message";
// the component prefix is kept and only the level tag is stripped.
func ParseLogLevel(line string) (level, msg string) {
	tag, rest, ok := bracketPrefix(line)
	if !ok {
		return "info", line
	}
	if isLogLevel(tag) {
		return tag, rest
	}

	if inner, after, ok := bracketPrefix(rest); ok && isLogLevel(inner) {
		component := line[:len(line)-len(rest)]
		return inner, component + after
	}
	return "info", line
}

// bracketPrefix splits "[tag] rest".
func bracketPrefix(s string) (tag, rest string, ok bool) {
	if len(s) < 3 || s[0] != '[' {
		return "", "", false
	}
	end := strings.Index(s, "] ")
	if end == -1 {
		return "", "", false
	}
	return s[1:end], s[end+2:], true
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
