package config

import "strings"

// normalizeExt lowercases an extension and ensures a leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// defaultSourceExtensions is the built-in source-code extension set used
// when file_length_limit.extensions is absent or set to "auto".
var defaultSourceExtensions = buildExtensionSet(
	// Python
	".py", ".pyi", ".pyx",
	// JavaScript/TypeScript
	".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".d.ts",
	// Web
	".vue", ".svelte", ".astro",
	// Systems languages
	".c", ".cpp", ".cc", ".cxx", ".h", ".hpp", ".hxx", ".rs", ".go",
	// JVM languages
	".java", ".kt", ".kts", ".scala", ".groovy", ".cljs", ".cljc",
	// Microsoft
	".cs", ".vb", ".fs", ".fsi",
	// Scripting
	".rb", ".php", ".swift", ".dart", ".lua", ".pl", ".pm",
	".sh", ".bash", ".zsh", ".fish", ".ps1", ".psm1",
	// Data/Stats
	".r", ".rmd", ".jl",
	// Functional
	".hs", ".ml", ".mli", ".re", ".rei", ".ex", ".exs", ".erl", ".hrl",
	// Config/Data formats
	".yaml", ".yml", ".toml", ".xml", ".sql", ".graphql", ".gql", ".proto",
	// Other
	".scm", ".ss", ".lisp", ".lsp", ".cl", ".fsx",
	".v", ".sv", ".svh", ".nim", ".zig", ".ada", ".adb", ".ads",
)

func buildExtensionSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return set
}
