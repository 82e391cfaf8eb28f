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

// Package status provides the status command for vendo.
package status

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/vendo/fs"
	"bennypowers.dev/vendo/internal/output"
	"bennypowers.dev/vendo/lockfile"
	"bennypowers.dev/vendo/manifest"
)

// Cmd is the status cobra command that reports drift between the manifest and
// the lock state without touching the filesystem or the network.
var Cmd = &cobra.Command{
	Use:   "status [pattern...]",
	Short: "Show drift between manifest and lock",
	Long: `Compare the manifest against the last reconciled lock state and report what
the next sync would change: hosts added or removed, version bumps, and
modules added to or removed from existing hosts.

Positional arguments are glob patterns matched against host identifiers,
e.g. "https://esm.sh/**".`,
	Example: `  # Report all drift
  vendo status

  # Only esm.sh hosts
  vendo status 'https://esm.sh/**'

  # Machine-readable
  vendo status --format json`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")

	_ = viper.BindPFlag("format", Cmd.Flags().Lookup("format"))
}

// HostStatus describes the drift for one host identifier.
type HostStatus struct {
	Host           string   `json:"host"`
	Status         string   `json:"status"` // added, removed, changed, up-to-date
	Version        string   `json:"version,omitempty"`
	LockedVersion  string   `json:"lockedVersion,omitempty"`
	AddedModules   []string `json:"addedModules,omitempty"`
	RemovedModules []string `json:"removedModules,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()
	dir := viper.GetString("dir")

	format := viper.GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}

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

	lock, err := lockfile.Load(osfs, filepath.Join(dir, lockfile.Path))
	if err != nil {
		return err
	}

	statuses, err := Diff(m, lock, args)
	if err != nil {
		return err
	}

	if format == "json" {
		out, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling status: %w", err)
		}
		return output.Write(osfs, string(out))
	}
	return output.Write(osfs, renderText(statuses))
}

// Diff computes per-host drift between the desired manifest and the lock
// state. Hosts whose identifier matches none of the glob patterns are
// skipped; no patterns means every host.
func Diff(m, lock manifest.Manifest, patterns []string) ([]HostStatus, error) {
	hosts := map[string]struct{}{}
	for host := range m {
		hosts[host] = struct{}{}
	}
	for host := range lock {
		hosts[host] = struct{}{}
	}

	sorted := make([]string, 0, len(hosts))
	for host := range hosts {
		sorted = append(sorted, host)
	}
	sort.Strings(sorted)

	var statuses []HostStatus
	for _, host := range sorted {
		matched, err := matchAny(patterns, host)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}

		desired, inManifest := m[host]
		locked, inLock := lock[host]

		switch {
		case inManifest && !inLock:
			statuses = append(statuses, HostStatus{
				Host:         host,
				Status:       "added",
				Version:      desired.Version,
				AddedModules: append([]string(nil), desired.Modules...),
			})
		case !inManifest && inLock:
			statuses = append(statuses, HostStatus{
				Host:           host,
				Status:         "removed",
				LockedVersion:  locked.Version,
				RemovedModules: append([]string(nil), locked.Modules...),
			})
		default:
			status := HostStatus{
				Host:           host,
				Version:        desired.Version,
				LockedVersion:  locked.Version,
				AddedModules:   difference(desired.Modules, locked.Modules),
				RemovedModules: difference(locked.Modules, desired.Modules),
			}
			if desired.Version != locked.Version ||
				len(status.AddedModules) > 0 || len(status.RemovedModules) > 0 {
				status.Status = "changed"
			} else {
				status.Status = "up-to-date"
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func matchAny(patterns []string, host string) (bool, error) {
	if len(patterns) == 0 {
		return true, nil
	}
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, host)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// difference returns the elements of a not present in b, preserving a's order.
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, item := range b {
		seen[item] = struct{}{}
	}
	var out []string
	for _, item := range a {
		if _, ok := seen[item]; !ok {
			out = append(out, item)
		}
	}
	return out
}

func renderText(statuses []HostStatus) string {
	var b strings.Builder
	drift := false
	for _, status := range statuses {
		switch status.Status {
		case "added":
			fmt.Fprintf(&b, "+ %s (%s)\n", status.Host, status.Version)
		case "removed":
			fmt.Fprintf(&b, "- %s (%s)\n", status.Host, status.LockedVersion)
		case "changed":
			if status.Version != status.LockedVersion {
				fmt.Fprintf(&b, "~ %s %s -> %s\n", status.Host, status.LockedVersion, status.Version)
			} else {
				fmt.Fprintf(&b, "~ %s (%s)\n", status.Host, status.Version)
			}
		default:
			continue
		}
		drift = true
		for _, module := range status.AddedModules {
			fmt.Fprintf(&b, "    + %s\n", module)
		}
		for _, module := range status.RemovedModules {
			fmt.Fprintf(&b, "    - %s\n", module)
		}
	}
	if !drift {
		return "up to date"
	}
	return strings.TrimSuffix(b.String(), "\n")
}
