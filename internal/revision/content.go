// SPDX-License-Identifier: MPL-2.0

package revision

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultTrackedPatterns are the files whose content identifies a working
// copy without version control: sources, translation tables and mod metadata.
var DefaultTrackedPatterns = []string{
	"src/main/java/**/*.java",
	"src/main/resources/bundles/bundle*.properties",
	"src/main/resources/mod.json",
}

// ContentHash fingerprints the files under root that match patterns.
//
// Matches are de-duplicated and ordered by their slash-separated path
// relative to root; the hash covers (path, NUL, content, NUL) for each.
// A root with no matching files yields EmptyToken.
func ContentHash(root string, patterns []string) (Token, error) {
	fsys := os.DirFS(root)

	files, err := MatchFiles(fsys, patterns)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return EmptyToken, nil
	}

	h := sha1.New() //nolint:gosec // see import
	for _, rel := range files {
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return "", fmt.Errorf("failed to read tracked file %s: %w", rel, err)
		}
		h.Write([]byte(rel))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}

	return Token(ContentPrefix + hex.EncodeToString(h.Sum(nil))), nil
}

// MatchFiles expands doublestar patterns against fsys and returns the sorted,
// de-duplicated set of regular files they match.
func MatchFiles(fsys fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, pat := range patterns {
		hits, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid tracked pattern %q: %w", pat, err)
		}
		for _, hit := range hits {
			info, err := fs.Stat(fsys, hit)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			seen[hit] = true
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}
