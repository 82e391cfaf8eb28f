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

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestMain(m *testing.M) {
	// Build the binary before running tests
	wd := mustGetwd()
	cmd := exec.Command("go", "build", "-o", "vendo_test", ".")
	cmd.Dir = wd
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("failed to build test binary: " + err.Error() + "\n" + string(out))
	}
	code := m.Run()
	_ = os.Remove(filepath.Join(wd, "vendo_test"))
	os.Exit(code)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	binary := filepath.Join(mustGetwd(), "vendo_test")
	cmd := exec.Command(binary, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

// newModuleServer serves fake ES module source and counts requests.
func newModuleServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprintf(w, "export const mod = %q;\nexport default mod;\n", r.URL.Path)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func writeManifest(t *testing.T, dir string, manifest map[string]any) {
	t.Helper()
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "modules.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSync(t *testing.T) {
	server, requests := newModuleServer(t)
	dir := t.TempDir()
	writeManifest(t, dir, map[string]any{
		server.URL + "/lit": map[string]any{
			"version": "3.1.0",
			"modules": []string{"index.js", "directives/repeat.js"},
		},
	})

	_, stderr, code := runCLI(t, "sync", "-C", dir)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if requests.Load() != 2 {
		t.Errorf("Expected 2 fetches, got %d", requests.Load())
	}

	// Shims are written under vendor/<scheme>/<host>/<path>/<module>
	host := strings.TrimPrefix(server.URL, "http://")
	hostname, _, _ := strings.Cut(host, ":")
	shimFile := filepath.Join(dir, "vendor", "http", hostname, "lit", "index.js")
	content, err := os.ReadFile(shimFile)
	if err != nil {
		t.Fatalf("Shim not written at %s: %v", shimFile, err)
	}
	if !strings.Contains(string(content), "export * from") {
		t.Errorf("Shim missing wildcard re-export: %q", content)
	}
	if !strings.Contains(string(content), "export { default } from") {
		t.Errorf("Shim missing default re-export: %q", content)
	}

	lockData, err := os.ReadFile(filepath.Join(dir, "modules-lock.json"))
	if err != nil {
		t.Fatalf("Lock file not written: %v", err)
	}
	var lock map[string]any
	if err := json.Unmarshal(lockData, &lock); err != nil {
		t.Fatalf("Lock file is not valid JSON: %v", err)
	}
	if _, ok := lock[server.URL+"/lit"]; !ok {
		t.Errorf("Lock file missing host entry: %s", lockData)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	server, requests := newModuleServer(t)
	dir := t.TempDir()
	writeManifest(t, dir, map[string]any{
		server.URL + "/lit": map[string]any{
			"version": "3.1.0",
			"modules": []string{"index.js"},
		},
	})

	if _, stderr, code := runCLI(t, "sync", "-C", dir); code != 0 {
		t.Fatalf("First sync failed: %s", stderr)
	}
	firstLock, err := os.ReadFile(filepath.Join(dir, "modules-lock.json"))
	if err != nil {
		t.Fatal(err)
	}
	fetched := requests.Load()

	if _, stderr, code := runCLI(t, "sync", "-C", dir); code != 0 {
		t.Fatalf("Second sync failed: %s", stderr)
	}
	if requests.Load() != fetched {
		t.Errorf("Second sync fetched %d more times, expected zero", requests.Load()-fetched)
	}
	secondLock, err := os.ReadFile(filepath.Join(dir, "modules-lock.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(firstLock, secondLock) {
		t.Error("Lock file changed across idempotent runs")
	}
}

func TestSyncMissingManifest(t *testing.T) {
	dir := t.TempDir()
	_, stderr, code := runCLI(t, "sync", "-C", dir)
	if code != 1 {
		t.Errorf("Expected exit code 1 for missing manifest, got %d", code)
	}
	if !strings.Contains(stderr, "modules.json") {
		t.Errorf("Expected manifest path in error, got: %s", stderr)
	}
}

func TestSyncInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "modules.json")
	if err := os.WriteFile(manifestPath, []byte(`{"https://esm.sh/lit": {"modules": ["a.js"]}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := runCLI(t, "sync", "-C", dir)
	if code != 1 {
		t.Errorf("Expected exit code 1 for invalid manifest, got %d", code)
	}
	if !strings.Contains(stderr, "version") {
		t.Errorf("Expected validation reason in error, got: %s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "modules-lock.json")); err == nil {
		t.Error("No lock file should be written for an invalid manifest")
	}
}

func TestStatus(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, map[string]any{
		"https://esm.sh/lit": map[string]any{
			"version": "3.1.0",
			"modules": []string{"index.js"},
		},
	})

	stdout, stderr, code := runCLI(t, "status", "-C", dir)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "+ https://esm.sh/lit (3.1.0)") {
		t.Errorf("Expected added host in status output, got: %s", stdout)
	}
}

func TestStatusJSON(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, map[string]any{
		"https://esm.sh/lit": map[string]any{
			"version": "3.1.0",
			"modules": []string{"index.js"},
		},
	})

	stdout, stderr, code := runCLI(t, "status", "-C", dir, "--format", "json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	var statuses []map[string]any
	if err := json.Unmarshal([]byte(stdout), &statuses); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nstdout: %s", err, stdout)
	}
	if len(statuses) != 1 || statuses[0]["status"] != "added" {
		t.Errorf("Unexpected status output: %s", stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "vendo ") {
		t.Errorf("Expected version output, got: %s", stdout)
	}
}
