package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	masterminds "github.com/Masterminds/semver/v3"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

const logPrefix = "catalog:loader"

// EnvCatalogFile names the environment variable consulted by LoadCatalog.
const EnvCatalogFile = "PLAYFAB_CATALOG_FILE"

//go:embed endpoints.json
var defaultCatalogJSON []byte

// LoadCatalog loads a descriptor table. It tries the given paths in order, then
// PLAYFAB_CATALOG_FILE, then config/endpoints.{json,toml}; unreadable or invalid
// files are skipped. With no usable file the embedded default is returned.
func LoadCatalog(paths ...string) (*Catalog, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvCatalogFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/endpoints.json", "config/endpoints.toml")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		cat, err := ParseCatalog(data, formatFor(p))
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse catalog file %s: %v", logPrefix, p, err))
			continue
		}
		slog.Info(fmt.Sprintf("%s - Loaded catalog from %s", logPrefix, p))
		return cat, nil
	}

	slog.Info(fmt.Sprintf("%s - Using embedded catalog", logPrefix))
	return GetDefaultCatalog()
}

// ParseCatalog decodes a descriptor table. format is "json" or "toml".
func ParseCatalog(data []byte, format string) (*Catalog, error) {
	var cat Catalog
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &cat); err != nil {
			return nil, fmt.Errorf("%s - decode toml: %w", logPrefix, err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("%s - decode json: %w", logPrefix, err)
		}
	default:
		return nil, fmt.Errorf("%s - unsupported catalog format %q", logPrefix, format)
	}
	return &cat, nil
}

// GetDefaultCatalog returns a fresh copy of the embedded descriptor table.
func GetDefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogJSON, "json")
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "json"
}

// Validate checks that every entry has a name, a rooted path and an explicit known
// credential rule, and that no two entries share a path.
func (c *Catalog) Validate() error {
	if len(c.APIs) == 0 {
		return fmt.Errorf("%s - catalog %q has no APIs", logPrefix, c.Name)
	}
	if c.SDKConstraint != "" {
		if _, err := masterminds.NewConstraint(c.SDKConstraint); err != nil {
			return fmt.Errorf("%s - invalid sdkConstraint %q: %w", logPrefix, c.SDKConstraint, err)
		}
	}
	seen := make(map[string]string)
	for api, entries := range c.APIs {
		for _, e := range entries {
			if e.Name == "" {
				return fmt.Errorf("%s - %s: entry without a name", logPrefix, api)
			}
			path := entryPath(api, e)
			if !strings.HasPrefix(path, "/") || len(path) < 2 {
				return fmt.Errorf("%s - %s/%s: path %q must start with /", logPrefix, api, e.Name, path)
			}
			if e.Auth == nil {
				return fmt.Errorf("%s - %s/%s: auth is required (use \"none\" for anonymous calls)", logPrefix, api, e.Name)
			}
			if *e.Auth < playfab.AuthNone || *e.Auth > playfab.AuthSessionTicket {
				return fmt.Errorf("%s - %s/%s: unknown credential rule %d", logPrefix, api, e.Name, int(*e.Auth))
			}
			if prev, ok := seen[path]; ok {
				return fmt.Errorf("%s - duplicate path %s (%s and %s/%s)", logPrefix, path, prev, api, e.Name)
			}
			seen[path] = api + "/" + e.Name
		}
	}
	return nil
}

func entryPath(api string, e EndpointEntry) string {
	if e.Path != "" {
		return e.Path
	}
	return "/" + api + "/" + e.Name
}

// Resolve validates cat and builds a ResolvedCatalog.
func Resolve(cat *Catalog) (*ResolvedCatalog, error) {
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	rc := &ResolvedCatalog{
		name:          cat.Name,
		version:       cat.Version,
		sdkConstraint: cat.SDKConstraint,
		byKey:         make(map[string]*Descriptor),
		byFoldedKey:   make(map[string]*Descriptor),
		byAPIName:     make(map[string]*Descriptor),
	}
	for api, entries := range cat.APIs {
		for _, e := range entries {
			d := &Descriptor{
				API:         api,
				Name:        e.Name,
				Path:        entryPath(api, e),
				Auth:        *e.Auth,
				Description: e.Description,
			}
			rc.byKey[d.Key()] = d
			rc.byFoldedKey[strings.ToLower(d.Key())] = d
			rc.byAPIName[api+"/"+e.Name] = d
			rc.ordered = append(rc.ordered, d)
		}
	}
	sort.Slice(rc.ordered, func(i, j int) bool {
		if rc.ordered[i].API != rc.ordered[j].API {
			return rc.ordered[i].API < rc.ordered[j].API
		}
		return rc.ordered[i].Path < rc.ordered[j].Path
	})
	return rc, nil
}

// MustDefault resolves the embedded table, panicking if it is invalid.
func MustDefault() *ResolvedCatalog {
	cat, err := GetDefaultCatalog()
	if err != nil {
		panic(err)
	}
	rc, err := Resolve(cat)
	if err != nil {
		panic(err)
	}
	return rc
}

// MergeCatalogs returns base with override's entries added. An override entry
// replaces a base entry with the same API and name.
func MergeCatalogs(base, override *Catalog) *Catalog {
	merged := *base
	merged.APIs = make(map[string][]EndpointEntry, len(base.APIs))
	for api, entries := range base.APIs {
		merged.APIs[api] = append([]EndpointEntry(nil), entries...)
	}
	for api, entries := range override.APIs {
		for _, e := range entries {
			list := merged.APIs[api]
			replaced := false
			for i := range list {
				if list[i].Name == e.Name {
					list[i] = e
					replaced = true
					break
				}
			}
			if !replaced {
				list = append(list, e)
			}
			merged.APIs[api] = list
		}
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.SDKConstraint != "" {
		merged.SDKConstraint = override.SDKConstraint
	}
	return &merged
}

// CheckCompatible reports whether sdkVersion satisfies the table's SDK constraint.
func (rc *ResolvedCatalog) CheckCompatible(sdkVersion string) error {
	if rc.sdkConstraint == "" {
		return nil
	}
	c, err := masterminds.NewConstraint(rc.sdkConstraint)
	if err != nil {
		return fmt.Errorf("%s - invalid sdkConstraint %q: %w", logPrefix, rc.sdkConstraint, err)
	}
	v, err := masterminds.NewVersion(sdkVersion)
	if err != nil {
		return fmt.Errorf("%s - invalid SDK version %q: %w", logPrefix, sdkVersion, err)
	}
	if ok, reasons := c.Validate(v); !ok {
		msgs := make([]string, 0, len(reasons))
		for _, r := range reasons {
			msgs = append(msgs, r.Error())
		}
		return fmt.Errorf("%s - SDK %s is not supported by catalog %s@%s: %s", logPrefix, sdkVersion, rc.name, rc.version, strings.Join(msgs, "; "))
	}
	return nil
}

// EndpointFor builds a typed endpoint from the descriptor named name.
func EndpointFor[Res any](rc *ResolvedCatalog, name string) (playfab.Endpoint[Res], error) {
	d := rc.Get(name)
	if d == nil {
		return playfab.Endpoint[Res]{}, fmt.Errorf("%s - unknown endpoint %q", logPrefix, name)
	}
	return playfab.Endpoint[Res]{Name: d.Key(), Path: d.Path, Auth: d.Auth}, nil
}

// MustEndpoint is EndpointFor that panics on an unknown name. Intended for package-level bindings.
func MustEndpoint[Res any](rc *ResolvedCatalog, name string) playfab.Endpoint[Res] {
	ep, err := EndpointFor[Res](rc, name)
	if err != nil {
		panic(err)
	}
	return ep
}
