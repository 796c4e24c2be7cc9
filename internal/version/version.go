// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version houses the version information of the chaincluster
// utility.
package version

import (
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
)

// semverRE matches a full semantic version string.
var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// Version is the application version per the semantic versioning 2.0.0 spec
// (https://semver.org/).
//
// It may be overridden during the build process with:
// '-ldflags "-X github.com/mmstanone/blocksci-compilable/internal/version.Version=fullsemver"'
var Version = "0.1.0-pre"

func init() {
	if !semverRE.MatchString(Version) {
		panic(fmt.Sprintf("malformed version string %q: does not conform "+
			"to semver specification", Version))
	}
}

// vcsCommitID returns the abbreviated revision the binary was built from, or
// the empty string when it is unknown.
func vcsCommitID() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var vcs, revision string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs":
			vcs = bs.Value
		case "vcs.revision":
			revision = bs.Value
		}
	}
	if vcs == "git" && len(revision) > 9 {
		revision = revision[:9]
	}
	return revision
}

// String returns the application version.  The commit the binary was built
// from is added as build metadata when the version does not carry any.
func String() string {
	if strings.Contains(Version, "+") {
		return Version
	}
	if commit := vcsCommitID(); commit != "" {
		return Version + "+" + commit
	}
	return Version
}
