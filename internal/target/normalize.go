// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package target

import (
	"net/url"
	"path"
	"path/filepath"
)

// Normalize processes a given import or compile target and converts it into a
// standard form.
//
// Targets may be any valid URI or file path. File paths and file URIs become
// rooted, slash separated paths that are resolved against the configured
// search roots. All other URIs are left as-is with the expectation that they
// will be handled by a network backed file system.
func Normalize(target string) string {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "" && u.Scheme != "file" && !isDriveLetter(u.Scheme)) {
		return target
	}
	if u.Scheme == "file" {
		target = u.Path
	}
	target = filepath.ToSlash(target)
	if !path.IsAbs(target) {
		return path.Join("/", target)
	}
	return path.Clean(target)
}

// Join resolves an import name against the URI of the file that declared it.
// The name is always relative to the directory of that file.
func Join(base string, name string) string {
	u, err := url.Parse(base)
	if err == nil && u.Scheme != "" && u.Scheme != "file" && !isDriveLetter(u.Scheme) {
		u.Path = path.Join(path.Dir(u.Path), filepath.ToSlash(name))
		u.RawPath = ""
		return u.String()
	}
	return path.Join(path.Dir(Normalize(base)), filepath.ToSlash(name))
}

// isDriveLetter catches windows paths such as C:\idl\a.avdl that url.Parse
// reads as a single letter scheme.
func isDriveLetter(scheme string) bool {
	return len(scheme) == 1
}
