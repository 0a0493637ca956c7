package padjam

import (
	"path/filepath"
	"sort"
	"strings"

	"libdb.so/padjam/internal/audio"
)

// reassignState is the sub-mode for browsing the catalog's directory tree to
// (re)bind a key. It exists only while Play is active; normal key handling
// is suspended for its lifetime.
type reassignState struct {
	targetX, targetY int

	// baseDir is the common path prefix of the whole catalog. currentDir
	// never escapes above it.
	baseDir    string
	currentDir string

	// sounds are the catalog entries directly inside currentDir; subdirs are
	// the immediate subdirectories that lead to deeper entries.
	sounds  []audio.Sound
	subdirs []string

	selected *audio.SoundID
}

// newReassignState opens the browser for the key at (x, y), rooted at the
// catalog's common prefix.
func newReassignState(catalog audio.Catalog, x, y int) *reassignState {
	base := catalogBaseDir(catalog)
	r := &reassignState{
		targetX:    x,
		targetY:    y,
		baseDir:    base,
		currentDir: base,
	}
	r.relist(catalog)
	return r
}

// catalogBaseDir is the longest common path prefix across the catalog.
func catalogBaseDir(catalog audio.Catalog) string {
	if len(catalog) == 0 {
		return ""
	}
	base := filepath.Dir(catalog[0].Path)
	for _, s := range catalog[1:] {
		base = pathIntersection(base, filepath.Dir(s.Path))
	}
	return base
}

// pathIntersection returns the longest common segment-wise prefix of two
// paths. It is symmetric and idempotent.
func pathIntersection(a, b string) string {
	as := strings.Split(a, string(filepath.Separator))
	bs := strings.Split(b, string(filepath.Separator))

	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}

	i := 0
	for i < n && as[i] == bs[i] {
		i++
	}
	return strings.Join(as[:i], string(filepath.Separator))
}

// selectDir descends into the named subdirectory of currentDir.
func (r *reassignState) selectDir(catalog audio.Catalog, name string) {
	r.currentDir = filepath.Join(r.currentDir, name)
	r.relist(catalog)
}

// upDir pops one segment, but only while currentDir is strictly below
// baseDir.
func (r *reassignState) upDir(catalog audio.Catalog) {
	if r.currentDir == r.baseDir {
		return
	}
	parent := filepath.Dir(r.currentDir)
	if len(parent) < len(r.baseDir) {
		parent = r.baseDir
	}
	r.currentDir = parent
	r.relist(catalog)
}

// selectSound marks a sound as the pending choice without closing the view.
func (r *reassignState) selectSound(id audio.SoundID) {
	r.selected = &id
}

// relist partitions the catalog into sounds directly inside currentDir and
// the immediate subdirectories holding deeper entries.
func (r *reassignState) relist(catalog audio.Catalog) {
	r.sounds = r.sounds[:0]
	r.subdirs = r.subdirs[:0]

	seen := make(map[string]struct{})
	prefix := r.currentDir + string(filepath.Separator)

	for _, s := range catalog {
		if filepath.Dir(s.Path) == r.currentDir {
			r.sounds = append(r.sounds, s)
			continue
		}
		if !strings.HasPrefix(s.Path, prefix) {
			continue
		}
		rest := s.Path[len(prefix):]
		sep := strings.IndexRune(rest, filepath.Separator)
		if sep < 0 {
			continue
		}
		dir := rest[:sep]
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		r.subdirs = append(r.subdirs, dir)
	}

	sort.Strings(r.subdirs)
}
