package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ZebulonRouseFrantzich/binstall/internal/asset"
	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser evaluates Lua manifests with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new manifest parser with the given platform detector.
// A nil detector leaves the platform table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile reads and parses the manifest at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if len(data) > MaxManifestSize {
		return nil, &ValidationError{Message: fmt.Sprintf("manifest %s is larger than %d bytes", path, MaxManifestSize)}
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua manifest from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Manifest, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate manifest: %w", ctxErr)
		}
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	manifest, err := extractManifest(L)
	if err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ParseError represents a manifest parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractManifest reads the global "binstall" table.
func extractManifest(L *lua.LState) (*Manifest, error) {
	root := L.GetGlobal(luaGlobalBinstall)
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'binstall' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}
	table := root.(*lua.LTable)
	manifest := &Manifest{}

	if toolsVal := table.RawGetString(luaFieldTools); toolsVal != lua.LNil {
		toolsTable, ok := toolsVal.(*lua.LTable)
		if !ok {
			return nil, &ValidationError{Field: luaFieldTools, Message: "must be a table"}
		}
		tools, err := extractTools(toolsTable)
		if err != nil {
			return nil, err
		}
		manifest.Tools = tools
	}

	if synVal := table.RawGetString(luaFieldSynonyms); synVal != lua.LNil {
		synTable, ok := synVal.(*lua.LTable)
		if !ok {
			return nil, &ValidationError{Field: luaFieldSynonyms, Message: "must be a table"}
		}
		synonyms, err := extractSynonyms(synTable)
		if err != nil {
			return nil, err
		}
		manifest.Synonyms = synonyms
	}

	return manifest, nil
}

// arrayValues returns the values stored under integer keys in index order.
// nil and false entries, left behind by platform conditionals such as
// `platform.is_linux and "owner/repo"`, are dropped.
func arrayValues(table *lua.LTable) ([]lua.LValue, error) {
	type entry struct {
		index int
		value lua.LValue
	}
	var entries []entry
	var badKey lua.LValue

	table.ForEach(func(key, value lua.LValue) {
		n, ok := key.(lua.LNumber)
		if !ok || float64(n) != float64(int(n)) {
			if badKey == nil {
				badKey = key
			}
			return
		}
		if value == lua.LNil || value == lua.LFalse {
			return
		}
		entries = append(entries, entry{index: int(n), value: value})
	})
	if badKey != nil {
		return nil, fmt.Errorf("unexpected key %s", badKey.String())
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })
	values := make([]lua.LValue, len(entries))
	for i, e := range entries {
		values[i] = e.value
	}
	return values, nil
}

// extractTools reads tool entries, either "owner/repo@tag" strings or
// { repo = ..., tag = ..., name = ... } tables.
func extractTools(table *lua.LTable) ([]ToolSpec, error) {
	values, err := arrayValues(table)
	if err != nil {
		return nil, &ValidationError{Field: luaFieldTools, Message: err.Error()}
	}

	tools := make([]ToolSpec, 0, len(values))
	for i, value := range values {
		field := fmt.Sprintf("%s[%d]", luaFieldTools, i)
		switch v := value.(type) {
		case lua.LString:
			spec, err := ParseToolSpec(string(v))
			if err != nil {
				return nil, prefixField(field, err)
			}
			tools = append(tools, spec)
		case *lua.LTable:
			spec, err := extractToolTable(v)
			if err != nil {
				return nil, prefixField(field, err)
			}
			tools = append(tools, spec)
		default:
			return nil, &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("expected string or table, got %s", value.Type()),
			}
		}
	}
	return tools, nil
}

func extractToolTable(table *lua.LTable) (ToolSpec, error) {
	repo, err := stringField(table, luaFieldRepo)
	if err != nil {
		return ToolSpec{}, err
	}
	tag, err := stringField(table, luaFieldTag)
	if err != nil {
		return ToolSpec{}, err
	}
	name, err := stringField(table, luaFieldName)
	if err != nil {
		return ToolSpec{}, err
	}

	spec, err := ParseToolSpec(repo)
	if err != nil {
		return ToolSpec{}, err
	}
	if tag != "" {
		if spec.Tag != "" && spec.Tag != tag {
			return ToolSpec{}, &ValidationError{
				Field:   luaFieldTag,
				Message: fmt.Sprintf("conflicts with %q in repo", spec.Tag),
			}
		}
		spec.Tag = tag
	}
	spec.Name = name
	if err := spec.Validate(); err != nil {
		return ToolSpec{}, err
	}
	return spec, nil
}

func stringField(table *lua.LTable, field string) (string, error) {
	switch v := table.RawGetString(field).(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString:
		return string(v), nil
	default:
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("expected string, got %s", v.Type())}
	}
}

// extractSynonyms reads { os = {...}, arch = {...}, fallback = {...} }.
func extractSynonyms(table *lua.LTable) (asset.Synonyms, error) {
	var synonyms asset.Synonyms
	var err error

	table.ForEach(func(key, value lua.LValue) {
		if err != nil {
			return
		}
		k, ok := key.(lua.LString)
		if !ok {
			err = &ValidationError{Field: luaFieldSynonyms, Message: fmt.Sprintf("unexpected key %s", key.String())}
			return
		}
		switch string(k) {
		case luaFieldOS, luaFieldArch, luaFieldFallback:
		default:
			err = &ValidationError{Field: luaFieldSynonyms, Message: fmt.Sprintf("unknown section %q", string(k))}
		}
	})
	if err != nil {
		return asset.Synonyms{}, err
	}

	osWords, err := wordMap(table, luaFieldOS)
	if err != nil {
		return asset.Synonyms{}, err
	}
	for key, words := range osWords {
		name, err := platform.NormalizeOS(key)
		if err != nil {
			return asset.Synonyms{}, &ValidationError{Field: luaFieldSynonyms + "." + luaFieldOS, Message: err.Error()}
		}
		if synonyms.OS == nil {
			synonyms.OS = make(map[platform.OS][]string)
		}
		synonyms.OS[name] = append(synonyms.OS[name], words...)
	}

	for _, section := range []string{luaFieldArch, luaFieldFallback} {
		archWords, err := wordMap(table, section)
		if err != nil {
			return asset.Synonyms{}, err
		}
		for key, words := range archWords {
			arch, err := platform.NormalizeArch(key)
			if err != nil {
				return asset.Synonyms{}, &ValidationError{Field: luaFieldSynonyms + "." + section, Message: err.Error()}
			}
			target := &synonyms.Arch
			if section == luaFieldFallback {
				target = &synonyms.Fallback
			}
			if *target == nil {
				*target = make(map[platform.Arch][]string)
			}
			(*target)[arch] = append((*target)[arch], words...)
		}
	}

	return synonyms, nil
}

// wordMap reads a { key = { "word", ... } } section.
func wordMap(table *lua.LTable, section string) (map[string][]string, error) {
	field := luaFieldSynonyms + "." + section
	val := table.RawGetString(section)
	if val == lua.LNil {
		return nil, nil
	}
	sectionTable, ok := val.(*lua.LTable)
	if !ok {
		return nil, &ValidationError{Field: field, Message: "must be a table"}
	}

	out := make(map[string][]string)
	var err error
	sectionTable.ForEach(func(key, value lua.LValue) {
		if err != nil {
			return
		}
		k, ok := key.(lua.LString)
		if !ok {
			err = &ValidationError{Field: field, Message: fmt.Sprintf("unexpected key %s", key.String())}
			return
		}
		words, ok := value.(*lua.LTable)
		if !ok {
			err = &ValidationError{Field: field + "." + string(k), Message: "must be a list of strings"}
			return
		}
		values, verr := arrayValues(words)
		if verr != nil {
			err = &ValidationError{Field: field + "." + string(k), Message: verr.Error()}
			return
		}
		for _, v := range values {
			s, ok := v.(lua.LString)
			if !ok {
				err = &ValidationError{Field: field + "." + string(k), Message: fmt.Sprintf("expected string, got %s", v.Type())}
				return
			}
			if len(s) > MaxStringLength {
				err = &ValidationError{Field: field + "." + string(k), Message: fmt.Sprintf("spelling too long (%d chars, max %d)", len(s), MaxStringLength)}
				return
			}
			out[string(k)] = append(out[string(k)], string(s))
		}
	})
	return out, err
}

func prefixField(prefix string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		field := prefix
		if ve.Field != "" {
			field += "." + ve.Field
		}
		return &ValidationError{Field: field, Message: ve.Message}
	}
	return err
}

// FormatError formats a manifest error for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
