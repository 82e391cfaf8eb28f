/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package reconcile

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/vendo/manifest"
	"bennypowers.dev/vendo/vendorpath"
)

// prune deletes shims recorded in the lock that the manifest no longer wants:
// every module of a host dropped entirely, or individual modules removed from
// a host's list. A version change alone never prunes; link handles re-fetch.
func (r *Reconciler) prune(m, lock manifest.Manifest) error {
	var obsolete []string
	for _, host := range lock.Hosts() {
		for _, module := range lock[host].Modules {
			if m.HasModule(host, module) {
				continue
			}
			rel, err := vendorpath.Resolve(host, module)
			if err != nil {
				return err
			}
			obsolete = append(obsolete, filepath.Join(r.rootDir, rel))
		}
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, target := range obsolete {
		g.Go(func() error {
			return r.removeShim(target)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Ancestor cleanup runs serially after all deletions join, so an
	// emptiness check can never race a sibling deletion in the same
	// directory.
	root := filepath.Join(r.rootDir, vendorpath.Root)
	for _, target := range obsolete {
		r.removeEmptyParents(filepath.Dir(target), root)
	}

	return nil
}

func (r *Reconciler) removeShim(target string) error {
	err := r.fsys.Remove(target)
	if errors.Is(err, iofs.ErrNotExist) {
		// Lock entry with no file on disk. Tolerated: the end state is
		// what pruning wanted anyway.
		r.warningf("prune: %s already absent", target)
		return nil
	}
	if err != nil {
		return fmt.Errorf("pruning %s: %w", target, err)
	}
	r.debugf("pruned %s", target)
	return nil
}

// removeEmptyParents walks upward from dir deleting each now-empty directory,
// stopping at the first non-empty directory or at the vendor root.
func (r *Reconciler) removeEmptyParents(dir, root string) {
	for within(root, dir) {
		entries, err := r.fsys.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := r.fsys.Remove(dir); err != nil {
			return
		}
		r.debugf("removed empty directory %s", dir)
		dir = filepath.Dir(dir)
	}
}

// within reports whether dir is strictly below root.
func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
