// Package catalog holds the endpoint descriptor table: which path each backend
// operation lives at and which credential it requires.
package catalog

import (
	"sort"
	"strings"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

// EndpointEntry is one operation in the descriptor table.
type EndpointEntry struct {
	Name string `json:"name" toml:"name"`
	// Path defaults to "/{api}/{name}" when empty.
	Path string `json:"path,omitempty" toml:"path"`
	// Auth is required; nil means the entry omitted it.
	Auth        *playfab.CredentialRule `json:"auth" toml:"auth"`
	Description string                  `json:"description,omitempty" toml:"description"`
}

// Catalog is the root of a descriptor table file.
type Catalog struct {
	Name        string `json:"name" toml:"name"`
	Version     string `json:"version" toml:"version"`
	Description string `json:"description,omitempty" toml:"description"`
	// SDKConstraint is a semver constraint the SDK version must satisfy to use this table.
	SDKConstraint string                     `json:"sdkConstraint,omitempty" toml:"sdkConstraint"`
	APIs          map[string][]EndpointEntry `json:"apis" toml:"apis"`
}

// Descriptor is a resolved endpoint.
type Descriptor struct {
	API         string
	Name        string
	Path        string
	Auth        playfab.CredentialRule
	Description string
}

// Key returns the lookup key, i.e. the path without its leading slash.
func (d *Descriptor) Key() string {
	return strings.TrimPrefix(d.Path, "/")
}

// CallInfo returns the dispatcher's untyped view of d.
func (d *Descriptor) CallInfo() playfab.CallInfo {
	return playfab.CallInfo{Name: d.Key(), Path: d.Path, Auth: d.Auth}
}

// ResolvedCatalog provides fast lookup of descriptors. It is read-only after Resolve.
type ResolvedCatalog struct {
	name          string
	version       string
	sdkConstraint string
	byKey         map[string]*Descriptor
	byFoldedKey   map[string]*Descriptor
	byAPIName     map[string]*Descriptor
	ordered       []*Descriptor
}

// Get returns a descriptor by key ("Admin/DeleteTask"), path ("/Admin/DeleteTask"),
// or API-qualified name ("Economy/GetInventoryItems" for "/Inventory/GetInventoryItems").
// Lookup falls back to a case-insensitive match.
func (rc *ResolvedCatalog) Get(name string) *Descriptor {
	key := strings.TrimPrefix(strings.TrimSpace(name), "/")
	if d, ok := rc.byKey[key]; ok {
		return d
	}
	if d, ok := rc.byAPIName[key]; ok {
		return d
	}
	if d, ok := rc.byFoldedKey[strings.ToLower(key)]; ok {
		return d
	}
	return nil
}

// ByPath returns the descriptor whose path is exactly path.
func (rc *ResolvedCatalog) ByPath(path string) *Descriptor {
	if !strings.HasPrefix(path, "/") {
		return nil
	}
	return rc.byKey[strings.TrimPrefix(path, "/")]
}

// List returns all descriptors ordered by API then path.
func (rc *ResolvedCatalog) List() []*Descriptor {
	out := make([]*Descriptor, len(rc.ordered))
	copy(out, rc.ordered)
	return out
}

// APIs returns the sorted API family names.
func (rc *ResolvedCatalog) APIs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range rc.ordered {
		if _, ok := seen[d.API]; !ok {
			seen[d.API] = struct{}{}
			out = append(out, d.API)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of descriptors.
func (rc *ResolvedCatalog) Len() int {
	return len(rc.ordered)
}

// Name returns the table name.
func (rc *ResolvedCatalog) Name() string {
	return rc.name
}

// Version returns the table version.
func (rc *ResolvedCatalog) Version() string {
	return rc.version
}

// SDKConstraint returns the SDK version constraint, if any.
func (rc *ResolvedCatalog) SDKConstraint() string {
	return rc.sdkConstraint
}
