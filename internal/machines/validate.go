package machines

import (
	"regexp"
	"strings"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
)

// RegistryPrefix marks a container name that refers to a saved image.
const RegistryPrefix = "blink/"

var (
	containerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]+$`)

	portMappingPattern = regexp.MustCompile(
		`^([0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}:)?` + // optional host bind ip
			`[0-9]{1,5}(:[0-9]{1,5})?` + // host and optional container port
			`(/(tcp|udp|sctp))?$`, // optional protocol
	)
)

// ValidateContainerName checks name against the container name grammar.
func ValidateContainerName(name string) error {
	if !containerNamePattern.MatchString(name) {
		return builderr.Invalid("container name", name, "must match "+containerNamePattern.String())
	}

	return nil
}

// ValidateRegistryName accepts a container name optionally prefixed with
// blink/. Only the part after the prefix is checked, and it must not be
// empty.
func ValidateRegistryName(name string) error {
	if rest, ok := strings.CutPrefix(name, RegistryPrefix); ok {
		if err := ValidateContainerName(rest); err != nil {
			return builderr.Invalid("container name", name, "must be "+RegistryPrefix+"<name> with <name> matching "+containerNamePattern.String())
		}

		return nil
	}

	return ValidateContainerName(name)
}

// ValidatePortMappings checks every port against the publish grammar.
func ValidatePortMappings(ports []string) error {
	for _, p := range ports {
		if !portMappingPattern.MatchString(p) {
			return builderr.Invalid("port mapping", p, "expected [ip:]hostPort[:containerPort][/tcp|udp|sctp]")
		}
	}

	return nil
}

// ValidateVolumeMapping checks a source:target mapping. The target must be
// absolute. The source must be absolute or start with $BUILD/ (any case).
func ValidateVolumeMapping(v string) error {
	source, target, ok := strings.Cut(v, ":")
	if !ok || strings.Contains(target, ":") {
		return builderr.Invalid("volume mapping", v, "expected source:target")
	}

	if !strings.HasPrefix(target, "/") {
		return builderr.Invalid("volume mapping", v, "target must be an absolute path")
	}

	if strings.HasPrefix(source, "/") {
		return nil
	}

	if rest, ok := cutPrefixFold(source, buildRoot); ok && rest != "" {
		return nil
	}

	return builderr.Invalid("volume mapping", v, "source must be an absolute path or start with "+buildRoot)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}

	return s[len(prefix):], true
}
