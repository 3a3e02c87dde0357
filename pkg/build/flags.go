// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the termvis binary at link
// time. A release build sets every field through -ldflags:
//
//	go build -ldflags "-X termvis/pkg/build.buildName=termvis \
//	    -X termvis/pkg/build.buildTime=$(date -u +%FT%TZ) \
//	    -X termvis/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X termvis/pkg/build.buildVersion=0.3.0"
//
// Development builds leave the variables empty; Initialize reports that and
// the binary keeps running with the defaults below.
package build

import (
	"errors"
	"fmt"
)

// Description is the one-line summary shown in the CLI help.
const Description = "Real-time terminal audio visualizer"

var ErrMissingFlag = errors.New("build flag missing")

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the flags the way `termvis --version` prints them.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}

// Package-level variables populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "termvis",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies the ldflags variables into the shared build info. It
// returns an error wrapping ErrMissingFlag naming the first empty variable, in
// which case the defaults stay in place.
func Initialize() error {
	required := []struct {
		name  string
		value string
	}{
		{"BuildName", buildName},
		{"BuildTime", buildTime},
		{"BuildCommit", buildCommit},
		{"BuildVersion", buildVersion},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is required", ErrMissingFlag, r.name)
		}
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
