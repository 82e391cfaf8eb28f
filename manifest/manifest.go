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

// Package manifest provides types and validation for vendo module manifests.
//
// A manifest maps host identifiers (fully-qualified URLs) to a pinned version
// and a list of module paths to vendor from that host. The lock file written
// after a successful run has the same shape and is validated the same way.
package manifest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DefaultPath is the manifest path used when none is given on the command line.
const DefaultPath = "modules.json"

// ModuleEntry holds the pinned version and module paths vendored from one host.
type ModuleEntry struct {
	// Version is an opaque version string, compared for exact equality only.
	Version string `json:"version"`
	// Modules are paths relative to the host's base URL. Nested paths are
	// allowed; duplicates are tolerated but redundant.
	Modules []string `json:"modules"`
}

// Manifest maps host identifiers to module entries.
type Manifest map[string]ModuleEntry

// Hosts returns the host identifiers in sorted order.
func (m Manifest) Hosts() []string {
	hosts := make([]string, 0, len(m))
	for host := range m {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// HasModule reports whether the entry for host lists the given module.
func (m Manifest) HasModule(host, module string) bool {
	entry, ok := m[host]
	if !ok {
		return false
	}
	for _, mod := range entry.Modules {
		if mod == module {
			return true
		}
	}
	return false
}

// ValidationError describes why a document failed manifest validation.
// Reasons covers the first offending host key; validation does not continue
// past it.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid manifest: " + strings.Join(e.Reasons, "; ")
}

// Parse unmarshals JSON data and validates it as a Manifest.
func Parse(data []byte) (Manifest, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return Validate(doc)
}

// Validate checks an arbitrary decoded JSON document against the manifest
// shape. The top level must be an object; every entry needs a string
// "version" and a "modules" array of strings, and every key must parse as an
// absolute URL. On failure it returns a *ValidationError with the reasons
// accumulated for the first offending key. An empty object is valid.
func Validate(doc any) (Manifest, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &ValidationError{Reasons: []string{"top-level value must be an object"}}
	}

	result := make(Manifest, len(obj))

	// Sorted key order keeps error output deterministic.
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		reasons := validateEntry(key, obj[key])
		if len(reasons) > 0 {
			return nil, &ValidationError{Reasons: reasons}
		}
		result[key] = buildEntry(obj[key].(map[string]any))
	}

	return result, nil
}

func validateEntry(key string, value any) (reasons []string) {
	if u, err := url.Parse(key); err != nil || u.Scheme == "" || u.Host == "" {
		reasons = append(reasons, fmt.Sprintf("%s: host identifier must be an absolute URL", key))
	}

	entry, ok := value.(map[string]any)
	if !ok {
		return append(reasons, fmt.Sprintf("%s: entry must be an object", key))
	}

	version, ok := entry["version"]
	if !ok {
		reasons = append(reasons, fmt.Sprintf("%s: missing \"version\"", key))
	} else if _, ok := version.(string); !ok {
		reasons = append(reasons, fmt.Sprintf("%s: \"version\" must be a string", key))
	}

	modules, ok := entry["modules"]
	if !ok {
		return append(reasons, fmt.Sprintf("%s: missing \"modules\"", key))
	}
	list, ok := modules.([]any)
	if !ok {
		return append(reasons, fmt.Sprintf("%s: \"modules\" must be an array of strings", key))
	}
	for i, mod := range list {
		if _, ok := mod.(string); !ok {
			reasons = append(reasons, fmt.Sprintf("%s: modules[%d] must be a string", key, i))
		}
	}

	return reasons
}

// buildEntry assumes the entry already passed validateEntry.
func buildEntry(entry map[string]any) ModuleEntry {
	list := entry["modules"].([]any)
	modules := make([]string, len(list))
	for i, mod := range list {
		modules[i] = mod.(string)
	}
	return ModuleEntry{
		Version: entry["version"].(string),
		Modules: modules,
	}
}
