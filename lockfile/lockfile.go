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

// Package lockfile loads and persists the vendo lock state.
//
// The lock file records the manifest most recently reconciled successfully.
// It is shape-identical to the manifest and validated the same way.
package lockfile

import (
	"encoding/json"
	"fmt"

	"bennypowers.dev/vendo/fs"
	"bennypowers.dev/vendo/manifest"
)

// Path is the lock file name, relative to the project directory.
const Path = "modules-lock.json"

// Load reads the lock state from path. A missing lock file is a first run and
// yields an empty state; a malformed one is fatal, because reconciling
// against a guessed state could delete or orphan vendored files.
func Load(fsys fs.FileSystem, path string) (manifest.Manifest, error) {
	if !fsys.Exists(path) {
		return manifest.Manifest{}, nil
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lock file %s: %w", path, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("lock file %s: %w", path, err)
	}
	return m, nil
}

// Write persists m as the new lock state, pretty-printed with two-space
// indentation. The file is written to a temp path and renamed into place so a
// crash never leaves a half-written lock behind.
func Write(fsys fs.FileSystem, path string, m manifest.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding lock file: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := fsys.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}
