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
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"bennypowers.dev/vendo/manifest"
	"bennypowers.dev/vendo/shim"
	"bennypowers.dev/vendo/vendorpath"
)

// FetchSpecifier builds the URL fetched for one (host, version, module)
// triple: <host>@<version>/<module>.
func FetchSpecifier(host, version, module string) string {
	return strings.TrimSuffix(host, "/") + "@" + version + "/" + module
}

// link vendors one module: it fetches the remote source and writes the local
// shim, unless the shim already exists at the desired version.
func (r *Reconciler) link(ctx context.Context, host, version, module string, lock manifest.Manifest) error {
	rel, err := vendorpath.Resolve(host, module)
	if err != nil {
		return err
	}
	target := filepath.Join(r.rootDir, rel)

	// The lock's recorded version is authoritative for what is on disk.
	effective := version
	if locked, ok := lock[host]; ok {
		effective = locked.Version
	}

	// Idempotence fast path: the dominant case on repeated runs.
	if r.fsys.Exists(target) && version == effective {
		r.debugf("linked %s (up to date)", rel)
		return nil
	}

	specifier := FetchSpecifier(host, version, module)
	res, err := r.fetcher.Fetch(ctx, specifier)
	if err != nil {
		return err
	}

	text := shim.Render(res.FinalURL, shim.HasDefaultExport(res.Body))

	if err := r.fsys.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("linking %s: %w", rel, err)
	}
	tmp := target + ".tmp"
	if err := r.fsys.WriteFile(tmp, []byte(text), 0644); err != nil {
		return fmt.Errorf("linking %s: %w", rel, err)
	}
	if err := r.fsys.Rename(tmp, target); err != nil {
		return fmt.Errorf("linking %s: %w", rel, err)
	}

	r.debugf("linked %s -> %s", rel, res.FinalURL)
	return nil
}
