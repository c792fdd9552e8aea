package cdn

import (
	"fmt"
	"strings"
)

// CloudFront invalidation limits.
// See: https://docs.aws.amazon.com/AmazonCloudFront/latest/DeveloperGuide/cloudfront-limits.html#limits-invalidations
const (
	MaxPaths     = 3000
	MaxWildcards = 15
	MaxPathBytes = 4096
)

// ValidationError describes a single constraint violation.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Stats holds summary information for a set of invalidation paths.
type Stats struct {
	Paths     int
	Wildcards int
}

// Count returns the number of paths and how many of them are wildcards.
func Count(paths []string) Stats {
	s := Stats{Paths: len(paths)}
	for _, p := range paths {
		if isWildcard(p) {
			s.Wildcards++
		}
	}
	return s
}

// Validate checks paths against the CloudFront invalidation limits. Returns
// nil if valid.
func Validate(paths []string) []ValidationError {
	var errs []ValidationError

	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, ValidationError{Path: p, Message: "path must start with /"})
		}
		if size := len(p); size > MaxPathBytes {
			errs = append(errs, ValidationError{
				Path:    p,
				Message: fmt.Sprintf("path exceeds %d bytes (%d bytes)", MaxPathBytes, size),
			})
		}
	}

	stats := Count(paths)
	if stats.Paths > MaxPaths {
		errs = append(errs, ValidationError{
			Path:    "(total)",
			Message: fmt.Sprintf("invalidation exceeds %d paths (%d paths)", MaxPaths, stats.Paths),
		})
	}
	if stats.Wildcards > MaxWildcards {
		errs = append(errs, ValidationError{
			Path:    "(total)",
			Message: fmt.Sprintf("invalidation exceeds %d wildcard paths (%d wildcards)", MaxWildcards, stats.Wildcards),
		})
	}

	return errs
}

func isWildcard(path string) bool {
	return strings.HasSuffix(path, "*")
}
