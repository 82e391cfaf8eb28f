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

// Package sync provides the sync command for vendo.
package sync

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/vendo/fetch"
	"bennypowers.dev/vendo/fs"
	"bennypowers.dev/vendo/internal/output"
	"bennypowers.dev/vendo/manifest"
	"bennypowers.dev/vendo/reconcile"
)

// Cmd is the sync cobra command that reconciles the vendor tree against the
// manifest.
var Cmd = &cobra.Command{
	Use:   "sync",
	Short: "Vendor remote modules per the manifest",
	Long: `Fetch every module the manifest lists, write local re-export shims under
vendor/, delete shims the manifest no longer wants, and record the result in
modules-lock.json.

Modules already vendored at their pinned version are not fetched again, so
re-running sync is cheap and safe.`,
	Example: `  # Reconcile using ./modules.json
  vendo sync

  # Use a different manifest
  vendo sync --manifest deps/modules.json

  # Show what is being fetched and pruned
  vendo sync --verbose`,
	RunE: run,
}

func init() {
	Cmd.Flags().Int("concurrency", reconcile.DefaultConcurrency, "Maximum concurrent fetches")

	_ = viper.BindPFlag("concurrency", Cmd.Flags().Lookup("concurrency"))
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()
	dir := viper.GetString("dir")

	manifestPath := viper.GetString("manifest")
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(dir, manifestPath)
	}

	data, err := osfs.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest %s: %w", manifestPath, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return err
	}

	reconciler := reconcile.New(osfs, fetch.NewHTTPFetcher()).
		WithRootDir(dir).
		WithLogger(output.Logger{}).
		WithConcurrency(viper.GetInt("concurrency"))

	return reconciler.Reconcile(cmd.Context(), m)
}
