package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalBinstall = "binstall"
	luaFieldTools     = "tools"
	luaFieldSynonyms  = "synonyms"
	luaFieldRepo      = "repo"
	luaFieldTag       = "tag"
	luaFieldName      = "name"
	luaFieldOS        = "os"
	luaFieldArch      = "arch"
	luaFieldFallback  = "fallback"
)

// Manifest limits
const (
	// MaxToolCount is the largest number of tools a manifest may list
	MaxToolCount = 500

	// MaxStringLength bounds every string read from a manifest
	MaxStringLength = 256

	// MaxManifestSize is the largest manifest file ParseFile reads
	MaxManifestSize = 1 << 20

	// DefaultParseTimeout applies when the context has no deadline
	DefaultParseTimeout = 5 * time.Second
)

// DefaultManifest is the manifest path used when none is configured
const DefaultManifest = "binstall.lua"
