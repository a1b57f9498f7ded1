// Package config loads binstall's settings and its Lua tool manifest.
//
// # Settings
//
// Settings come from a private viper instance. Each key is read, in order,
// from its command-line flag, BINSTALL_<KEY>, and a few variables the
// Actions runner provides:
//
//	token       --token        BINSTALL_TOKEN, INPUT_TOKEN, GITHUB_TOKEN
//	tool_cache  --tool-cache   BINSTALL_TOOL_CACHE, RUNNER_TOOL_CACHE
//	repo        (argument)     BINSTALL_REPO, INPUT_REPO
//	tag         --tag          BINSTALL_TAG, INPUT_TAG
//	name        --name         BINSTALL_NAME, INPUT_NAME
//
// # Manifest
//
// A manifest lists the tools to install and may extend the platform
// spellings used for asset matching:
//
//	binstall = {
//	  tools = {
//	    "sharkdp/fd@v10.2.0",
//	    { repo = "BurntSushi/ripgrep", tag = "14.1.1", name = "rg" },
//	    platform.is_linux and "koalaman/shellcheck" or nil,
//	  },
//	  synonyms = {
//	    os = { linux = { "linux-gnu" } },
//	    arch = { arm64 = { "armv8" } },
//	  },
//	}
//
// The manifest runs in a sandboxed gopher-lua VM: os, io, module loading,
// debug and metatable access are removed. The platform table is read-only.
// Evaluation is bounded by DefaultParseTimeout unless the context already
// carries a deadline.
//
// # Limits
//
//   - Manifest size: MaxManifestSize
//   - Tool count: MaxToolCount
//   - String length: MaxStringLength
//
// # Error Types
//
//	type ParseError struct {
//	    Message string  // User-friendly message
//	    Detail  string  // Raw Lua error
//	}
//
//	type ValidationError struct {
//	    Field   string  // Field that failed validation
//	    Message string  // Error description
//	}
//
// FormatError trims Lua stack tracebacks unless verbose output is requested.
package config
