package index

import (
	"path"
	"path/filepath"
	"strings"
)

// shouldExclude reports whether a slash-separated relative path matches any pattern.
// Patterns support:
//   - Simple glob patterns: *.tmp, *.log
//   - Directory patterns: .git/, node_modules/
//   - Path patterns: build/*, **/test/*
//   - Negation: !keep.log re-includes a path excluded by an earlier pattern
func shouldExclude(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	excluded := false
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if negated, ok := strings.CutPrefix(pattern, "!"); ok {
			if excluded && matchPattern(relativePath, negated) {
				excluded = false
			}
			continue
		}
		if !excluded && matchPattern(relativePath, pattern) {
			excluded = true
		}
	}

	return excluded
}

// matchPattern checks a single exclusion pattern against a path
func matchPattern(relativePath, pattern string) bool {
	normalizedPath := filepath.ToSlash(relativePath)
	normalizedPattern := filepath.ToSlash(pattern)
	baseName := path.Base(normalizedPath)

	// Directory pattern (ends with /) matches everything below that directory
	if dirPattern, ok := strings.CutSuffix(normalizedPattern, "/"); ok {
		return strings.HasPrefix(normalizedPath, dirPattern+"/") ||
			normalizedPath == dirPattern ||
			strings.Contains(normalizedPath, "/"+dirPattern+"/")
	}

	// **/pattern matches pattern at any level
	if suffix, ok := strings.CutPrefix(normalizedPattern, "**/"); ok {
		if matchGlob(baseName, suffix) {
			return true
		}
		if strings.HasSuffix(normalizedPath, "/"+suffix) || normalizedPath == suffix {
			return true
		}
		return matchGlobPath(normalizedPath, suffix)
	}

	// Pattern with a separator applies to the full path
	if strings.Contains(normalizedPattern, "/") {
		if matched, _ := path.Match(normalizedPattern, normalizedPath); matched {
			return true
		}
		// Also try matching a trailing segment (for patterns like build/*)
		return matchGlobSuffix(normalizedPath, normalizedPattern)
	}

	// Pattern applies to basename only
	return matchGlob(baseName, normalizedPattern)
}

// matchGlob performs simple glob matching on a single path component
func matchGlob(name, pattern string) bool {
	matched, _ := path.Match(pattern, name)
	return matched
}

// matchGlobPath checks if any component of p matches the pattern
func matchGlobPath(p, pattern string) bool {
	for _, part := range strings.Split(p, "/") {
		if matchGlob(part, pattern) {
			return true
		}
	}
	return false
}

// matchGlobSuffix matches pattern against the trailing components of p
func matchGlobSuffix(p, pattern string) bool {
	parts := strings.Split(p, "/")
	depth := strings.Count(pattern, "/") + 1
	if depth > len(parts) {
		return false
	}
	matched, _ := path.Match(pattern, strings.Join(parts[len(parts)-depth:], "/"))
	return matched
}
