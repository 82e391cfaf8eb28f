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

// Package vendorpath derives on-disk paths for vendored modules.
package vendorpath

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/idna"
)

// Root is the directory all vendored shims are written under, relative to the
// project directory.
const Root = "vendor"

// Resolve derives the shim path for a module vendored from a host:
// vendor/<scheme>/<hostname>/<url-path>/<module>. The result is relative to
// the project directory. Unicode hostnames are converted to their punycode
// form so the directory name round-trips on any filesystem.
func Resolve(hostIdentifier, module string) (string, error) {
	u, err := url.Parse(hostIdentifier)
	if err != nil {
		return "", fmt.Errorf("resolving path for %s: %w", hostIdentifier, err)
	}

	hostname := u.Hostname()
	if ascii, err := idna.Lookup.ToASCII(hostname); err == nil {
		hostname = ascii
	}

	return filepath.Join(Root, u.Scheme, hostname, strings.Trim(u.Path, "/"), module), nil
}
