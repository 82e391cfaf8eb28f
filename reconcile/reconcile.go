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

// Package reconcile turns a desired manifest plus the prior lock state into
// an updated vendor tree and a new lock file.
//
// A run is linear: load lock, prune obsolete shims, link every manifest
// module, persist the whole manifest as the new lock state. Any failure
// aborts the run before the lock is written; re-running is safe because
// up-to-date modules are never re-fetched.
package reconcile

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/vendo/fetch"
	"bennypowers.dev/vendo/fs"
	"bennypowers.dev/vendo/lockfile"
	"bennypowers.dev/vendo/manifest"
)

// DefaultConcurrency bounds how many fetches and deletions run at once.
const DefaultConcurrency = 10

// Reconciler reconciles a manifest against the filesystem and lock state.
type Reconciler struct {
	fsys        fs.FileSystem
	fetcher     fetch.Fetcher
	rootDir     string
	logger      Logger
	concurrency int
}

// New creates a Reconciler rooted at the current directory.
func New(fsys fs.FileSystem, fetcher fetch.Fetcher) *Reconciler {
	return &Reconciler{
		fsys:        fsys,
		fetcher:     fetcher,
		rootDir:     ".",
		concurrency: DefaultConcurrency,
	}
}

// WithRootDir returns a new Reconciler operating relative to dir.
func (r *Reconciler) WithRootDir(dir string) *Reconciler {
	out := *r
	out.rootDir = dir
	return &out
}

// WithLogger returns a new Reconciler with the specified logger.
func (r *Reconciler) WithLogger(logger Logger) *Reconciler {
	out := *r
	out.logger = logger
	return &out
}

// WithConcurrency returns a new Reconciler with the given fan-out bound.
// Values below 1 fall back to the default.
func (r *Reconciler) WithConcurrency(n int) *Reconciler {
	out := *r
	if n < 1 {
		n = DefaultConcurrency
	}
	out.concurrency = n
	return &out
}

// LockPath returns the lock file path for this Reconciler's root directory.
func (r *Reconciler) LockPath() string {
	return filepath.Join(r.rootDir, lockfile.Path)
}

// Reconcile brings the vendor tree in line with m and records the result.
// Pruning completes fully, including empty-directory cleanup, before any
// linking starts, so a prune walking up through a directory can never race a
// link writing into it. The lock file is only written after every prune and
// link succeeded, and it records the entire manifest, not a merge: every
// entry that reached this point is the authoritative resolved state.
func (r *Reconciler) Reconcile(ctx context.Context, m manifest.Manifest) error {
	lock, err := lockfile.Load(r.fsys, r.LockPath())
	if err != nil {
		return err
	}

	if err := r.prune(m, lock); err != nil {
		return err
	}

	if err := r.linkAll(ctx, m, lock); err != nil {
		return err
	}

	return lockfile.Write(r.fsys, r.LockPath(), m)
}

// linkAll fans out one link per distinct (host, module) pair. A module listed
// twice is linked once: two concurrent writers would collide on the same temp
// path. Ordering between links is unspecified; the first failure wins and
// in-flight siblings may still complete their writes.
func (r *Reconciler) linkAll(ctx context.Context, m, lock manifest.Manifest) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	seen := make(map[string]struct{})
	for host, entry := range m {
		for _, module := range entry.Modules {
			key := host + "\x00" + module
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			g.Go(func() error {
				return r.link(gctx, host, entry.Version, module, lock)
			})
		}
	}

	return g.Wait()
}
