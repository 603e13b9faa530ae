package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	bumpRepoRoot string
	bumpList     bool
	bumpDryRun   bool
)

var bumpCmd = &cobra.Command{
	Use:   "bump [plugin] [version]",
	Short: "Bump a plugin version in a marketplace manifest",
	Long: `Bump the version of a plugin in a marketplace-style repository:
plugins/<name>/plugin.json holds the plugin's own version, and
marketplace.json at the repository root indexes all plugins.

The version argument is either an explicit version ("1.2.3") or a bump
type (major, minor, patch) applied to the current plugin version.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBump,
}

func init() {
	bumpCmd.Flags().StringVar(&bumpRepoRoot, "repo", ".", "marketplace repository root")
	bumpCmd.Flags().BoolVar(&bumpList, "list", false, "list plugins and their versions")
	bumpCmd.Flags().BoolVar(&bumpDryRun, "dry-run", false, "show what would change without writing")
	rootCmd.AddCommand(bumpCmd)
}

// semver is the three-part version the manifests carry.
type semver struct {
	major, minor, patch int
}

var semverPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

func (v semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func parseSemver(s string) (semver, error) {
	m := semverPattern.FindStringSubmatch(s)
	if m == nil {
		return semver{}, fmt.Errorf("invalid version format: %s", s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return semver{major, minor, patch}, nil
}

// bump returns the incremented version, zeroing the lower parts.
func (v semver) bump(part string) (semver, error) {
	switch part {
	case "major":
		return semver{v.major + 1, 0, 0}, nil
	case "minor":
		return semver{v.major, v.minor + 1, 0}, nil
	case "patch":
		return semver{v.major, v.minor, v.patch + 1}, nil
	}
	return semver{}, fmt.Errorf("invalid version part: %s", part)
}

func runBump(cmd *cobra.Command, args []string) error {
	if bumpList {
		return listPlugins(bumpRepoRoot)
	}
	if len(args) < 2 {
		return fmt.Errorf("plugin and version are required (or use --list)")
	}
	plugin, versionArg := args[0], args[1]

	pluginManifest := filepath.Join(bumpRepoRoot, "plugins", plugin, "plugin.json")
	current, err := manifestVersion(pluginManifest)
	if err != nil {
		return err
	}

	var next semver
	switch versionArg {
	case "major", "minor", "patch":
		next, err = current.bump(versionArg)
	default:
		next, err = parseSemver(versionArg)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Bumping %s: %s -> %s\n", plugin, current, next)
	if bumpDryRun {
		fmt.Println("(dry run, no changes made)")
		return nil
	}

	if err := updatePluginManifest(pluginManifest, next); err != nil {
		return err
	}
	if err := updateMarketplace(filepath.Join(bumpRepoRoot, "marketplace.json"), plugin, next); err != nil {
		return err
	}
	fmt.Println("Version bump complete!")
	return nil
}

func loadJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// saveJSON writes pretty JSON with a trailing newline, preserving key order
// as encoded by the map marshal.
func saveJSON(path string, data map[string]any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func manifestVersion(path string) (semver, error) {
	data, err := loadJSON(path)
	if err != nil {
		return semver{}, err
	}
	s, _ := data["version"].(string)
	if s == "" {
		return semver{}, fmt.Errorf("no version found in %s", path)
	}
	return parseSemver(s)
}

func updatePluginManifest(path string, next semver) error {
	data, err := loadJSON(path)
	if err != nil {
		return err
	}
	data["version"] = next.String()
	if err := saveJSON(path, data); err != nil {
		return err
	}
	fmt.Printf("Updated %s -> %s\n", path, next)
	return nil
}

func updateMarketplace(path, plugin string, next semver) error {
	data, err := loadJSON(path)
	if err != nil {
		return err
	}
	plugins, _ := data["plugins"].([]any)
	for _, p := range plugins {
		entry, ok := p.(map[string]any)
		if !ok || entry["name"] != plugin {
			continue
		}
		entry["version"] = next.String()
		if err := saveJSON(path, data); err != nil {
			return err
		}
		fmt.Printf("Updated %s -> %s\n", path, next)
		return nil
	}
	return fmt.Errorf("plugin %q not found in %s", plugin, path)
}

func listPlugins(root string) error {
	data, err := loadJSON(filepath.Join(root, "marketplace.json"))
	if err != nil {
		return err
	}
	plugins, _ := data["plugins"].([]any)
	fmt.Println("Available plugins:")
	for _, p := range plugins {
		entry, ok := p.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		version, _ := entry["version"].(string)
		if name == "" {
			name = "unknown"
		}
		if version == "" {
			version = "unknown"
		}
		fmt.Printf("  %s: %s\n", name, version)
	}
	return nil
}
