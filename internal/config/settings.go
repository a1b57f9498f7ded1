package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys. Flags use the same names with "-" for "_".
const (
	KeyToken       = "token"
	KeyAPIURL      = "api_url"
	KeyToolCache   = "tool_cache"
	KeyCacheDir    = "cache_dir"
	KeyManifest    = "manifest"
	KeyTarget      = "target"
	KeyMinSize     = "min_size"
	KeySniff       = "sniff"
	KeySniffBytes  = "sniff_bytes"
	KeyRetries     = "retries"
	KeyTimeout     = "timeout"
	KeyMetadataTTL = "metadata_ttl"
	KeyNoProgress  = "no_progress"
	KeyVerbose     = "verbose"
	KeyRepo        = "repo"
	KeyTag         = "tag"
	KeyName        = "name"
)

// EnvPrefix prefixes every setting's own environment variable.
const EnvPrefix = "BINSTALL"

// Defaults for settings without a flag, variable or input.
const (
	DefaultRetries     = 3
	DefaultTimeout     = 5 * time.Minute
	DefaultMetadataTTL = time.Hour
)

// extraEnv lists the variables consulted after BINSTALL_<KEY>, in order.
// INPUT_* are the Actions step inputs.
var extraEnv = map[string][]string{
	KeyToken:     {"INPUT_TOKEN", "GITHUB_TOKEN"},
	KeyAPIURL:    {"GITHUB_API_URL"},
	KeyToolCache: {"RUNNER_TOOL_CACHE"},
	KeyRepo:      {"INPUT_REPO"},
	KeyTag:       {"INPUT_TAG"},
	KeyName:      {"INPUT_NAME"},
}

var allKeys = []string{
	KeyToken, KeyAPIURL, KeyToolCache, KeyCacheDir, KeyManifest, KeyTarget,
	KeyMinSize, KeySniff, KeySniffBytes, KeyRetries, KeyTimeout,
	KeyMetadataTTL, KeyNoProgress, KeyVerbose, KeyRepo, KeyTag, KeyName,
}

// Settings is binstall's resolved runtime configuration.
type Settings struct {
	Token string
	// APIURL is the GitHub API root; empty means api.github.com
	APIURL    string
	ToolCache string
	CacheDir  string
	Manifest  string

	// Target overrides platform detection when non-zero
	Target platform.Target

	MinSize    int64
	Sniff      bool
	SniffBytes int

	Retries     int
	Timeout     time.Duration
	MetadataTTL time.Duration
	NoProgress  bool
	Verbose     bool

	// Repo, Tag and Name default the install request, so the binary can
	// run as an Actions step with `with: repo: ...`
	Repo string
	Tag  string
	Name string
}

// NewViper returns a viper instance with binstall's defaults and
// environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault(KeyCacheDir, defaultCacheDir())
	v.SetDefault(KeyManifest, DefaultManifest)
	v.SetDefault(KeyRetries, DefaultRetries)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyMetadataTTL, DefaultMetadataTTL)

	for _, key := range allKeys {
		envs := append([]string{EnvPrefix + "_" + strings.ToUpper(key)}, extraEnv[key]...)
		// BindEnv only fails without a key
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	return v
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "binstall")
	}
	return filepath.Join(os.TempDir(), "binstall-cache")
}

// BindFlags binds every flag in flags that names a setting.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range allKeys {
		flag := flags.Lookup(FlagName(key))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// FlagName returns the command-line flag for a setting key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Load resolves the settings from v.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Token:       strings.TrimSpace(v.GetString(KeyToken)),
		APIURL:      strings.TrimSpace(v.GetString(KeyAPIURL)),
		ToolCache:   v.GetString(KeyToolCache),
		CacheDir:    v.GetString(KeyCacheDir),
		Manifest:    v.GetString(KeyManifest),
		MinSize:     v.GetInt64(KeyMinSize),
		Sniff:       v.GetBool(KeySniff),
		SniffBytes:  v.GetInt(KeySniffBytes),
		Retries:     v.GetInt(KeyRetries),
		Timeout:     v.GetDuration(KeyTimeout),
		MetadataTTL: v.GetDuration(KeyMetadataTTL),
		NoProgress:  v.GetBool(KeyNoProgress),
		Verbose:     v.GetBool(KeyVerbose),
		Repo:        strings.TrimSpace(v.GetString(KeyRepo)),
		Tag:         strings.TrimSpace(v.GetString(KeyTag)),
		Name:        strings.TrimSpace(v.GetString(KeyName)),
	}

	if target := strings.TrimSpace(v.GetString(KeyTarget)); target != "" {
		t, err := platform.ParseTarget(target)
		if err != nil {
			return nil, &ValidationError{Field: KeyTarget, Message: err.Error()}
		}
		s.Target = t
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks numeric ranges.
func (s *Settings) Validate() error {
	if s.SniffBytes < 0 {
		return &ValidationError{Field: KeySniffBytes, Message: "cannot be negative"}
	}
	if s.Timeout < 0 {
		return &ValidationError{Field: KeyTimeout, Message: "cannot be negative"}
	}
	if s.MetadataTTL < 0 {
		return &ValidationError{Field: KeyMetadataTTL, Message: "cannot be negative"}
	}
	return nil
}

// Request returns the tool spec given through settings alone, if any.
func (s *Settings) Request() (ToolSpec, bool, error) {
	if s.Repo == "" {
		return ToolSpec{}, false, nil
	}
	spec, err := ParseToolSpec(s.Repo)
	if err != nil {
		return ToolSpec{}, false, err
	}
	if s.Tag != "" {
		spec.Tag = s.Tag
	}
	spec.Name = s.Name
	if err := spec.Validate(); err != nil {
		return ToolSpec{}, false, err
	}
	return spec, true, nil
}
