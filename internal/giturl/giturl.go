// Package giturl rewrites https repository URLs for hosted forges into
// the scp-like ssh form, so the machine clones them with the forwarded
// ssh agent instead of prompting for credentials.
package giturl

import (
	"net/url"
	"strings"
)

var sshHosts = []string{"github.com", "gitlab.com"}

// Rewrite converts https://github.com/owner/repo (or the schemeless
// github.com/owner/repo) to git@github.com:owner/repo.git, and the same
// for gitlab.com. A #fragment, used by build-ctl to pick a ref and a
// context directory, is kept. Anything else is returned unchanged.
func Rewrite(raw string) string {
	base, fragment, hasFragment := strings.Cut(raw, "#")

	u, err := url.Parse(base)
	if err != nil {
		return raw
	}

	for _, host := range sshHosts {
		if path, ok := repoPath(u, host); ok {
			out := "git@" + host + ":" + path
			if hasFragment {
				out += "#" + fragment
			}

			return out
		}
	}

	return raw
}

func repoPath(u *url.URL, host string) (string, bool) {
	var path string

	switch {
	case u.Scheme == "https" && u.Host == host:
		path = u.Path
	case u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, host+"/"):
		path = strings.TrimPrefix(u.Path, host)
	default:
		return "", false
	}

	path = strings.Trim(path, "/")
	if !strings.Contains(path, "/") {
		return "", false
	}

	if !strings.HasSuffix(path, ".git") {
		path += ".git"
	}

	return path, true
}
