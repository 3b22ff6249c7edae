// Package extrepo implements the external-repository phase: fetching a
// tagged tarball, unpacking it into a version-pinned directory, and
// softlinking a version-agnostic name to it, plus the cmake_repo/pyke_repo
// sibling behavior of publishing a foreign-build FileData.
package extrepo

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// ResolveVersion resolves a requested version spec -- a literal tag,
// "latest", or a semver constraint range -- against the tags a repository
// actually has, per SPEC_FULL.md §4.6's "version-tag resolution"
// supplement. A literal tag that matches verbatim always wins, even if it
// isn't semver-parseable (tags like "v1" or "release-3" are common).
func ResolveVersion(requested string, tags []string) (string, error) {
	if requested == "" {
		return "", fmt.Errorf("empty version request")
	}
	for _, t := range tags {
		if t == requested {
			return t, nil
		}
	}
	if requested == "latest" {
		return latestOf(tags)
	}
	constraint, err := goversion.NewConstraint(requested)
	if err != nil {
		return "", fmt.Errorf("version %q matches no tag and is not a valid constraint: %w", requested, err)
	}
	return bestMatching(tags, constraint)
}

func latestOf(tags []string) (string, error) {
	var best *goversion.Version
	var bestTag string
	for _, t := range tags {
		v, err := goversion.NewVersion(t)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestTag = t
		}
	}
	if best == nil {
		return "", fmt.Errorf("no parseable version tags found among %v", tags)
	}
	return bestTag, nil
}

func bestMatching(tags []string, constraint goversion.Constraints) (string, error) {
	var best *goversion.Version
	var bestTag string
	for _, t := range tags {
		v, err := goversion.NewVersion(t)
		if err != nil {
			continue
		}
		if !constraint.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestTag = t
		}
	}
	if best == nil {
		return "", fmt.Errorf("no tag satisfies constraint %q among %v", constraint.String(), tags)
	}
	return bestTag, nil
}
