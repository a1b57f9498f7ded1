package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Generator renders a Manifest as Lua.
type Generator struct {
	indent string // Indentation string (default: two spaces)
	now    func() time.Time
}

// NewGenerator creates a new Lua manifest generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
		now:    time.Now,
	}
}

// Generate generates Lua code from a Manifest.
// Platform conditionals are not preserved: the output lists the tools the
// manifest evaluated to.
func (g *Generator) Generate(manifest *Manifest) (string, error) {
	if err := manifest.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer

	buf.WriteString("-- binstall manifest\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")

	buf.WriteString(luaGlobalBinstall + " = {\n")

	g.writeTools(&buf, manifest.Tools)

	if hasSynonyms(manifest) {
		buf.WriteString("\n")
		g.writeSynonyms(&buf, manifest)
	}

	buf.WriteString("}\n")

	return buf.String(), nil
}

// WriteFile renders manifest to path through a temporary file.
func (g *Generator) WriteFile(path string, manifest *Manifest) error {
	content, err := g.Generate(manifest)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create manifest dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

// writeTools writes the tools section to the buffer.
func (g *Generator) writeTools(buf *bytes.Buffer, tools []ToolSpec) {
	buf.WriteString(g.indent)
	buf.WriteString(luaFieldTools + " = {\n")

	for _, tool := range tools {
		buf.WriteString(g.indent)
		buf.WriteString(g.indent)

		if tool.Name == "" {
			buf.WriteString(g.quoteLuaString(tool.String()))
			buf.WriteString(",\n")
			continue
		}

		buf.WriteString("{ ")
		buf.WriteString(luaFieldRepo + " = ")
		buf.WriteString(g.quoteLuaString(tool.Repo))
		if tool.Tag != "" {
			buf.WriteString(", " + luaFieldTag + " = ")
			buf.WriteString(g.quoteLuaString(tool.Tag))
		}
		buf.WriteString(", " + luaFieldName + " = ")
		buf.WriteString(g.quoteLuaString(tool.Name))
		buf.WriteString(" },\n")
	}

	buf.WriteString(g.indent)
	buf.WriteString("},\n")
}

// writeSynonyms writes the synonyms section with keys in sorted order.
func (g *Generator) writeSynonyms(buf *bytes.Buffer, manifest *Manifest) {
	buf.WriteString(g.indent)
	buf.WriteString(luaFieldSynonyms + " = {\n")

	osWords := make(map[string][]string, len(manifest.Synonyms.OS))
	for k, v := range manifest.Synonyms.OS {
		osWords[string(k)] = v
	}
	g.writeWordMap(buf, luaFieldOS, osWords)

	archWords := make(map[string][]string, len(manifest.Synonyms.Arch))
	for k, v := range manifest.Synonyms.Arch {
		archWords[string(k)] = v
	}
	g.writeWordMap(buf, luaFieldArch, archWords)

	fallback := make(map[string][]string, len(manifest.Synonyms.Fallback))
	for k, v := range manifest.Synonyms.Fallback {
		fallback[string(k)] = v
	}
	g.writeWordMap(buf, luaFieldFallback, fallback)

	buf.WriteString(g.indent)
	buf.WriteString("},\n")
}

func (g *Generator) writeWordMap(buf *bytes.Buffer, section string, words map[string][]string) {
	if len(words) == 0 {
		return
	}

	keys := make([]string, 0, len(words))
	for k := range words {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	buf.WriteString(strings.Repeat(g.indent, 2))
	buf.WriteString(section + " = {\n")
	for _, k := range keys {
		quoted := make([]string, len(words[k]))
		for i, w := range words[k] {
			quoted[i] = g.quoteLuaString(w)
		}
		buf.WriteString(strings.Repeat(g.indent, 3))
		fmt.Fprintf(buf, "%s = { %s },\n", k, strings.Join(quoted, ", "))
	}
	buf.WriteString(strings.Repeat(g.indent, 2))
	buf.WriteString("},\n")
}

func hasSynonyms(m *Manifest) bool {
	return len(m.Synonyms.OS) > 0 || len(m.Synonyms.Arch) > 0 || len(m.Synonyms.Fallback) > 0
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
