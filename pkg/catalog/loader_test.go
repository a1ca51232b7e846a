package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

const loaderTestPrefix = "catalog:loader_test"

func rule(r playfab.CredentialRule) *playfab.CredentialRule { return &r }

func TestGetDefaultCatalog(t *testing.T) {
	cat, err := GetDefaultCatalog()
	if err != nil {
		t.Fatalf("%s - embedded catalog: %v", loaderTestPrefix, err)
	}
	if cat.Version == "" || cat.Name == "" {
		t.Errorf("%s - expected name and version, got %q %q", loaderTestPrefix, cat.Name, cat.Version)
	}
	if err := cat.Validate(); err != nil {
		t.Fatalf("%s - embedded catalog invalid: %v", loaderTestPrefix, err)
	}
}

func TestDefaultCatalog_CredentialRules(t *testing.T) {
	rc := MustDefault()
	tests := []struct {
		name string
		path string
		auth playfab.CredentialRule
	}{
		{"Admin/DeleteTask", "/Admin/DeleteTask", playfab.AuthSecretKey},
		{"Server/GetPlayerStatistics", "/Server/GetPlayerStatistics", playfab.AuthSecretKey},
		{"Client/LoginWithCustomID", "/Client/LoginWithCustomID", playfab.AuthNone},
		{"Client/GetLeaderboard", "/Client/GetLeaderboard", playfab.AuthSessionTicket},
		{"Authentication/GetEntityToken", "/Authentication/GetEntityToken", playfab.AuthSecretKey},
		{"Event/WriteEvents", "/Event/WriteEvents", playfab.AuthEntityToken},
		{"Event/WriteTelemetryEvents", "/Event/WriteTelemetryEvents", playfab.AuthTelemetryKey},
		{"Economy/GetInventoryItems", "/Inventory/GetInventoryItems", playfab.AuthEntityToken},
		{"Progression/UpdateStatistics", "/Statistic/UpdateStatistics", playfab.AuthEntityToken},
		{"Match/CreateMatchmakingTicket", "/Match/CreateMatchmakingTicket", playfab.AuthEntityToken},
	}
	for _, tt := range tests {
		d := rc.Get(tt.name)
		if d == nil {
			t.Errorf("%s - %s not found", loaderTestPrefix, tt.name)
			continue
		}
		if d.Path != tt.path || d.Auth != tt.auth {
			t.Errorf("%s - %s = %s [%s], want %s [%s]", loaderTestPrefix, tt.name, d.Path, d.Auth, tt.path, tt.auth)
		}
	}
}

func TestResolvedCatalog_Lookups(t *testing.T) {
	rc := MustDefault()
	if rc.Get("/Admin/DeleteTask") == nil {
		t.Error("catalog:loader_test - path lookup failed")
	}
	if rc.Get("admin/deletetask") == nil {
		t.Error("catalog:loader_test - case-insensitive lookup failed")
	}
	if rc.Get("Admin/Nope") != nil {
		t.Error("catalog:loader_test - unknown endpoint should be nil")
	}
	if rc.ByPath("Admin/DeleteTask") != nil {
		t.Error("catalog:loader_test - ByPath requires a leading slash")
	}
	if d := rc.ByPath("/Event/WriteEvents"); d == nil || d.API != "Event" {
		t.Errorf("catalog:loader_test - ByPath = %+v", d)
	}
	if rc.Len() != len(rc.List()) || rc.Len() < 100 {
		t.Errorf("catalog:loader_test - Len = %d", rc.Len())
	}
	apis := rc.APIs()
	if apis[0] != "Admin" {
		t.Errorf("catalog:loader_test - APIs not sorted: %v", apis)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cat  Catalog
	}{
		{"no apis", Catalog{Name: "x"}},
		{"unnamed entry", Catalog{APIs: map[string][]EndpointEntry{"Admin": {{Auth: rule(playfab.AuthSecretKey)}}}}},
		{"relative path", Catalog{APIs: map[string][]EndpointEntry{"Admin": {{Name: "A", Path: "Admin/A", Auth: rule(playfab.AuthNone)}}}}},
		{"duplicate path", Catalog{APIs: map[string][]EndpointEntry{
			"Admin":  {{Name: "A", Path: "/X/A", Auth: rule(playfab.AuthSecretKey)}},
			"Server": {{Name: "B", Path: "/X/A", Auth: rule(playfab.AuthSecretKey)}},
		}}},
		{"bad rule", Catalog{APIs: map[string][]EndpointEntry{"Admin": {{Name: "A", Auth: rule(playfab.CredentialRule(42))}}}}},
		{"missing rule", Catalog{APIs: map[string][]EndpointEntry{"Admin": {{Name: "DeleteTask"}}}}},
		{"bad constraint", Catalog{SDKConstraint: "not a constraint", APIs: map[string][]EndpointEntry{"Admin": {{Name: "A", Auth: rule(playfab.AuthNone)}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cat.Validate(); err == nil {
				t.Errorf("%s - expected validation error", loaderTestPrefix)
			}
			if _, err := Resolve(&tt.cat); err == nil {
				t.Errorf("%s - Resolve should reject invalid catalog", loaderTestPrefix)
			}
		})
	}
}

func TestParseCatalog_RequiresExplicitAuth(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{"json omitted", "json", `{"apis":{"Admin":[{"name":"DeleteTask"}]}}`},
		{"json empty", "json", `{"apis":{"Admin":[{"name":"BanUsers","auth":""}]}}`},
		{"toml omitted", "toml", "[[apis.Admin]]\nname = \"DeleteTask\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := ParseCatalog([]byte(tt.data), tt.format)
			if err != nil {
				return
			}
			if _, err := Resolve(cat); err == nil {
				t.Errorf("%s - entry without an explicit rule must be rejected", loaderTestPrefix)
			}
		})
	}

	cat, err := ParseCatalog([]byte(`{"apis":{"Client":[{"name":"LoginWithCustomID","auth":"none"}]}}`), "json")
	if err != nil {
		t.Fatalf("%s - ParseCatalog: %v", loaderTestPrefix, err)
	}
	rc, err := Resolve(cat)
	if err != nil {
		t.Fatalf("%s - explicit none must resolve: %v", loaderTestPrefix, err)
	}
	if d := rc.Get("Client/LoginWithCustomID"); d == nil || d.Auth != playfab.AuthNone {
		t.Errorf("%s - descriptor = %+v", loaderTestPrefix, d)
	}
}

func TestLoadCatalog_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.toml")
	content := `
name = "custom"
version = "2.1.0"
sdkConstraint = ">=1.0.0"

[[apis.Admin]]
name = "DeleteTask"
auth = "secretKey"

[[apis.Event]]
name = "WriteTelemetryEvents"
auth = "X-TelemetryKey"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("%s - LoadCatalog: %v", loaderTestPrefix, err)
	}
	want := &Catalog{
		Name:          "custom",
		Version:       "2.1.0",
		SDKConstraint: ">=1.0.0",
		APIs: map[string][]EndpointEntry{
			"Admin": {{Name: "DeleteTask", Auth: rule(playfab.AuthSecretKey)}},
			"Event": {{Name: "WriteTelemetryEvents", Auth: rule(playfab.AuthTelemetryKey)}},
		},
	}
	if diff := cmp.Diff(want, cat); diff != "" {
		t.Errorf("%s - toml catalog mismatch (-want +got):\n%s", loaderTestPrefix, diff)
	}
}

func TestLoadCatalog_SkipsInvalidAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"apis":`), 0o600); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadCatalog(bad, filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("%s - LoadCatalog: %v", loaderTestPrefix, err)
	}
	if cat.Name != "playfab-endpoints" {
		t.Errorf("%s - expected embedded catalog, got %q", loaderTestPrefix, cat.Name)
	}
}

func TestLoadCatalog_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.json")
	if err := os.WriteFile(path, []byte(`{"name":"from-env","version":"1.0.0","apis":{"Admin":[{"name":"RunTask","auth":"secretKey"}]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvCatalogFile, path)
	cat, err := LoadCatalog()
	if err != nil {
		t.Fatalf("%s - LoadCatalog: %v", loaderTestPrefix, err)
	}
	if cat.Name != "from-env" {
		t.Errorf("%s - Name = %q, want from-env", loaderTestPrefix, cat.Name)
	}
}

func TestMergeCatalogs(t *testing.T) {
	base := &Catalog{Name: "base", Version: "1.0.0", APIs: map[string][]EndpointEntry{
		"Admin": {{Name: "DeleteTask", Auth: rule(playfab.AuthSecretKey)}},
	}}
	override := &Catalog{Version: "1.1.0", APIs: map[string][]EndpointEntry{
		"Admin":  {{Name: "DeleteTask", Auth: rule(playfab.AuthEntityToken)}},
		"Custom": {{Name: "Ping", Path: "/Custom/Ping", Auth: rule(playfab.AuthNone)}},
	}}
	merged := MergeCatalogs(base, override)

	if merged.Version != "1.1.0" || merged.Name != "base" {
		t.Errorf("%s - merged header = %s@%s", loaderTestPrefix, merged.Name, merged.Version)
	}
	if *merged.APIs["Admin"][0].Auth != playfab.AuthEntityToken {
		t.Errorf("%s - override entry not applied", loaderTestPrefix)
	}
	if *base.APIs["Admin"][0].Auth != playfab.AuthSecretKey {
		t.Errorf("%s - base catalog was mutated", loaderTestPrefix)
	}
	if len(merged.APIs["Custom"]) != 1 {
		t.Errorf("%s - new API not merged", loaderTestPrefix)
	}
}

func TestMergeCatalogs_RebindsGetEntityToken(t *testing.T) {
	base, err := GetDefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	override, err := ParseCatalog([]byte(`{"apis":{"Authentication":[{"name":"GetEntityToken","auth":"sessionTicket"}]}}`), "json")
	if err != nil {
		t.Fatalf("%s - ParseCatalog: %v", loaderTestPrefix, err)
	}

	rc, err := Resolve(MergeCatalogs(base, override))
	if err != nil {
		t.Fatalf("%s - Resolve: %v", loaderTestPrefix, err)
	}
	d := rc.Get("Authentication/GetEntityToken")
	if d == nil || d.Auth != playfab.AuthSessionTicket {
		t.Fatalf("%s - GetEntityToken = %+v, want sessionTicket", loaderTestPrefix, d)
	}
	if rc.Len() != MustDefault().Len() {
		t.Errorf("%s - rebinding changed the table size: %d vs %d", loaderTestPrefix, rc.Len(), MustDefault().Len())
	}
	if MustDefault().Get("Authentication/GetEntityToken").Auth != playfab.AuthSecretKey {
		t.Errorf("%s - embedded binding must stay secretKey", loaderTestPrefix)
	}
}

func TestCheckCompatible(t *testing.T) {
	rc := MustDefault()
	if err := rc.CheckCompatible(playfab.SDKVersion); err != nil {
		t.Errorf("%s - current SDK must satisfy embedded catalog: %v", loaderTestPrefix, err)
	}
	if err := rc.CheckCompatible("2.0.0"); err == nil {
		t.Errorf("%s - 2.0.0 should be rejected", loaderTestPrefix)
	}
	if err := rc.CheckCompatible("banana"); err == nil {
		t.Errorf("%s - invalid version should be rejected", loaderTestPrefix)
	}
}

func TestEndpointFor(t *testing.T) {
	rc := MustDefault()
	ep, err := EndpointFor[playfab.Empty](rc, "Admin/DeleteTask")
	if err != nil {
		t.Fatalf("%s - EndpointFor: %v", loaderTestPrefix, err)
	}
	want := playfab.Endpoint[playfab.Empty]{Name: "Admin/DeleteTask", Path: "/Admin/DeleteTask", Auth: playfab.AuthSecretKey}
	if ep != want {
		t.Errorf("%s - endpoint = %+v, want %+v", loaderTestPrefix, ep, want)
	}
	if _, err := EndpointFor[playfab.Raw](rc, "Nope/Nope"); err == nil {
		t.Errorf("%s - expected error for unknown endpoint", loaderTestPrefix)
	}
}
