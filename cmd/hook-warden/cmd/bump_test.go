package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSemver(t *testing.T) {
	v, err := parseSemver("1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "1.2.3" {
		t.Errorf("round trip = %s", v)
	}

	for _, bad := range []string{"", "1.2", "v1.2.3", "one.two.three"} {
		if _, err := parseSemver(bad); err == nil {
			t.Errorf("parseSemver(%q) should fail", bad)
		}
	}
}

func TestSemverBump(t *testing.T) {
	v := semver{1, 2, 3}
	tests := []struct {
		part string
		want string
	}{
		{"major", "2.0.0"},
		{"minor", "1.3.0"},
		{"patch", "1.2.4"},
	}
	for _, tt := range tests {
		got, err := v.bump(tt.part)
		if err != nil {
			t.Fatal(err)
		}
		if got.String() != tt.want {
			t.Errorf("bump(%s) = %s, want %s", tt.part, got, tt.want)
		}
	}
	if _, err := v.bump("nope"); err == nil {
		t.Error("bump with unknown part should fail")
	}
}

func writeManifests(t *testing.T, root, plugin, version string) {
	t.Helper()
	pluginDir := filepath.Join(root, "plugins", plugin)
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	pluginJSON := map[string]any{"name": plugin, "version": version}
	data, _ := json.Marshal(pluginJSON)
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	marketplace := map[string]any{
		"plugins": []any{
			map[string]any{"name": plugin, "version": version},
			map[string]any{"name": "other", "version": "9.9.9"},
		},
	}
	data, _ = json.Marshal(marketplace)
	if err := os.WriteFile(filepath.Join(root, "marketplace.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func readVersion(t *testing.T, path string) string {
	t.Helper()
	data, err := loadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := data["version"].(string)
	return s
}

func TestUpdateManifests(t *testing.T) {
	root := t.TempDir()
	writeManifests(t, root, "safety", "1.0.2")

	pluginManifest := filepath.Join(root, "plugins", "safety", "plugin.json")
	current, err := manifestVersion(pluginManifest)
	if err != nil {
		t.Fatal(err)
	}
	next, err := current.bump("minor")
	if err != nil {
		t.Fatal(err)
	}

	if err := updatePluginManifest(pluginManifest, next); err != nil {
		t.Fatal(err)
	}
	marketplace := filepath.Join(root, "marketplace.json")
	if err := updateMarketplace(marketplace, "safety", next); err != nil {
		t.Fatal(err)
	}

	if got := readVersion(t, pluginManifest); got != "1.1.0" {
		t.Errorf("plugin manifest version = %s", got)
	}

	data, err := loadJSON(marketplace)
	if err != nil {
		t.Fatal(err)
	}
	plugins := data["plugins"].([]any)
	first := plugins[0].(map[string]any)
	second := plugins[1].(map[string]any)
	if first["version"] != "1.1.0" {
		t.Errorf("marketplace entry = %v", first)
	}
	if second["version"] != "9.9.9" {
		t.Errorf("unrelated entry touched: %v", second)
	}
}

func TestUpdateMarketplace_UnknownPlugin(t *testing.T) {
	root := t.TempDir()
	writeManifests(t, root, "safety", "1.0.0")

	err := updateMarketplace(filepath.Join(root, "marketplace.json"), "missing", semver{1, 0, 1})
	if err == nil {
		t.Error("unknown plugin should fail")
	}
}
