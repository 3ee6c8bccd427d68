package sshcmd

import "strings"

// NormalizeForward qualifies a -L/-R shorthand with the container name.
//
//	"8080"           -> "8080:web:8080"
//	"8080:9090"      -> "8080:web:9090"
//	"8080:host:9090" -> unchanged
//
// Specs with three or more parts are passed through without validation.
func NormalizeForward(spec, container string) string {
	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 1:
		return parts[0] + ":" + container + ":" + parts[0]
	case 2:
		return parts[0] + ":" + container + ":" + parts[1]
	default:
		return spec
	}
}

func normalizeForwards(specs []string, container string) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = NormalizeForward(s, container)
	}

	return out
}
