package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// File pairs a parsed script with its source path.
type File struct {
	Script Script
	Path   string
}

// ParseYAML decodes and normalises a YAML script.
func ParseYAML(data []byte) (Script, error) {
	s, err := decodeYAML(data)
	if err != nil {
		return Script{}, err
	}
	return s.Normalized()
}

// ParseJSONC strips comments and trailing commas, then decodes the result
// the way ParseYAML does.
func ParseJSONC(data []byte) (Script, error) {
	s, err := decodeJSONC(data)
	if err != nil {
		return Script{}, err
	}
	return s.Normalized()
}

// Parse picks the decoder from the file extension.
func Parse(name string, data []byte) (Script, error) {
	s, err := Decode(name, data)
	if err != nil {
		return Script{}, err
	}
	return s.Normalized()
}

// Decode is Parse without normalisation, for callers that fill in project
// defaults first.
func Decode(name string, data []byte) (Script, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		return decodeJSONC(data)
	default:
		return decodeYAML(data)
	}
}

func decodeYAML(data []byte) (Script, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Script{}, fmt.Errorf("script: payload is empty")
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("script: decode: %w", err)
	}
	return s, nil
}

func decodeJSONC(data []byte) (Script, error) {
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return Script{}, fmt.Errorf("script: payload is empty")
	}
	var raw any
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return Script{}, fmt.Errorf("script: decode json: %w", err)
	}
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return Script{}, fmt.Errorf("script: re-encode json: %w", err)
	}
	return decodeYAML(payload)
}

// LoadFile reads a script from disk.
func LoadFile(path string) (File, error) {
	return LoadFileWithTemplate(path, "")
}

// LoadFileWithTemplate reads a script from disk, using template when the
// script names none.
func LoadFileWithTemplate(path, template string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("script: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("script: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("script: read %s: %w", path, err)
	}
	s, err := Decode(path, data)
	if err == nil {
		if s.Template == "" {
			s.Template = strings.TrimSpace(template)
		}
		s, err = s.Normalized()
	}
	if err != nil {
		return File{}, fmt.Errorf("script: %s: %w", path, err)
	}
	return File{Script: s, Path: filepath.Clean(path)}, nil
}

// LoadDir reads every script in dir, sorted by path. A missing directory
// holds no scripts.
func LoadDir(dir string) ([]File, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("script: read %s: %w", trimmed, err)
	}
	var files []File
	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !IsScriptFile(entry.Name()) {
			continue
		}
		file, err := LoadFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[file.Script.ID]; ok {
			return nil, fmt.Errorf("script: duplicate id %s (%s and %s)", file.Script.ID, existing, file.Path)
		}
		seen[file.Script.ID] = file.Path
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// IsScriptFile reports whether name has a script extension.
func IsScriptFile(name string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".yaml", ".yml", ".json", ".jsonc":
		return true
	}
	return false
}
