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

package status

import (
	"reflect"
	"strings"
	"testing"

	"bennypowers.dev/vendo/manifest"
)

func TestDiff(t *testing.T) {
	m := manifest.Manifest{
		"https://esm.sh/new-pkg":  {Version: "1.0.0", Modules: []string{"index.js"}},
		"https://esm.sh/bumped":   {Version: "2.0.0", Modules: []string{"index.js"}},
		"https://esm.sh/stable":   {Version: "1.0.0", Modules: []string{"index.js"}},
		"https://esm.sh/reshaped": {Version: "1.0.0", Modules: []string{"a.js", "c.js"}},
	}
	lock := manifest.Manifest{
		"https://esm.sh/bumped":   {Version: "1.0.0", Modules: []string{"index.js"}},
		"https://esm.sh/stable":   {Version: "1.0.0", Modules: []string{"index.js"}},
		"https://esm.sh/reshaped": {Version: "1.0.0", Modules: []string{"a.js", "b.js"}},
		"https://unpkg.com/gone":  {Version: "4.0.0", Modules: []string{"gone.js"}},
	}

	statuses, err := Diff(m, lock, nil)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	byHost := map[string]HostStatus{}
	for _, status := range statuses {
		byHost[status.Host] = status
	}

	if got := byHost["https://esm.sh/new-pkg"]; got.Status != "added" {
		t.Errorf("new-pkg status = %q, want added", got.Status)
	}
	if got := byHost["https://unpkg.com/gone"]; got.Status != "removed" {
		t.Errorf("gone status = %q, want removed", got.Status)
	}
	if got := byHost["https://esm.sh/stable"]; got.Status != "up-to-date" {
		t.Errorf("stable status = %q, want up-to-date", got.Status)
	}

	bumped := byHost["https://esm.sh/bumped"]
	if bumped.Status != "changed" || bumped.LockedVersion != "1.0.0" || bumped.Version != "2.0.0" {
		t.Errorf("bumped status = %+v", bumped)
	}

	reshaped := byHost["https://esm.sh/reshaped"]
	if reshaped.Status != "changed" {
		t.Errorf("reshaped status = %q, want changed", reshaped.Status)
	}
	if !reflect.DeepEqual(reshaped.AddedModules, []string{"c.js"}) {
		t.Errorf("reshaped added modules = %v, want [c.js]", reshaped.AddedModules)
	}
	if !reflect.DeepEqual(reshaped.RemovedModules, []string{"b.js"}) {
		t.Errorf("reshaped removed modules = %v, want [b.js]", reshaped.RemovedModules)
	}
}

func TestDiffIsSorted(t *testing.T) {
	m := manifest.Manifest{
		"https://unpkg.com/b": {Version: "1.0.0", Modules: []string{"b.js"}},
		"https://esm.sh/a":    {Version: "1.0.0", Modules: []string{"a.js"}},
	}

	statuses, err := Diff(m, manifest.Manifest{}, nil)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if len(statuses) != 2 || statuses[0].Host != "https://esm.sh/a" {
		t.Errorf("Expected sorted host order, got %v", statuses)
	}
}

func TestDiffPatternFilter(t *testing.T) {
	m := manifest.Manifest{
		"https://esm.sh/lit":    {Version: "1.0.0", Modules: []string{"index.js"}},
		"https://unpkg.com/lit": {Version: "1.0.0", Modules: []string{"index.js"}},
	}

	statuses, err := Diff(m, manifest.Manifest{}, []string{"https://esm.sh/**"})
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if len(statuses) != 1 || statuses[0].Host != "https://esm.sh/lit" {
		t.Errorf("Pattern filter mismatch: %v", statuses)
	}
}

func TestDiffInvalidPattern(t *testing.T) {
	m := manifest.Manifest{
		"https://esm.sh/lit": {Version: "1.0.0", Modules: []string{"index.js"}},
	}
	if _, err := Diff(m, manifest.Manifest{}, []string{"[unclosed"}); err == nil {
		t.Error("Expected error for invalid glob pattern")
	}
}

func TestRenderText(t *testing.T) {
	statuses := []HostStatus{
		{Host: "https://esm.sh/new-pkg", Status: "added", Version: "1.0.0", AddedModules: []string{"index.js"}},
		{Host: "https://esm.sh/bumped", Status: "changed", Version: "2.0.0", LockedVersion: "1.0.0"},
		{Host: "https://esm.sh/stable", Status: "up-to-date", Version: "1.0.0", LockedVersion: "1.0.0"},
		{Host: "https://unpkg.com/gone", Status: "removed", LockedVersion: "4.0.0", RemovedModules: []string{"gone.js"}},
	}

	text := renderText(statuses)
	for _, want := range []string{
		"+ https://esm.sh/new-pkg (1.0.0)",
		"    + index.js",
		"~ https://esm.sh/bumped 1.0.0 -> 2.0.0",
		"- https://unpkg.com/gone (4.0.0)",
		"    - gone.js",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Missing line %q in output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "stable") {
		t.Errorf("Up-to-date hosts should not appear in text output:\n%s", text)
	}
}

func TestRenderTextClean(t *testing.T) {
	statuses := []HostStatus{
		{Host: "https://esm.sh/stable", Status: "up-to-date", Version: "1.0.0", LockedVersion: "1.0.0"},
	}
	if got := renderText(statuses); got != "up to date" {
		t.Errorf("renderText = %q, want 'up to date'", got)
	}
}
