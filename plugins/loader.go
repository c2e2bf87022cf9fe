package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FragmentFile pairs a parsed fragment with its on-disk source.
type FragmentFile struct {
	Fragment Fragment
	Path     string
}

// fragmentReader turns one plugin file into a fragment. name is the file
// name without its extension and serves as the id when the file sets none.
type fragmentReader func(path, name string, data []byte) (Fragment, error)

var readers = map[string]fragmentReader{
	".yaml": readYAMLFragment,
	".yml":  readYAMLFragment,
	".go":   readGoFragment,
}

// IsFragmentFile reports whether name has an extension a plugin can use.
func IsFragmentFile(name string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(strings.TrimSpace(name)))]
	return ok
}

// ParseFragmentYAML decodes and validates a single plugin payload.
func ParseFragmentYAML(data []byte) (Fragment, error) {
	return decodeFragment(data, "")
}

// decodeFragment reads a YAML fragment, falling back to id when the payload
// names none.
func decodeFragment(data []byte, id string) (Fragment, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Fragment{}, fmt.Errorf("plugin: payload is empty")
	}
	var f Fragment
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fragment{}, fmt.Errorf("plugin: decode fragment: %w", err)
	}
	if strings.TrimSpace(f.ID) == "" {
		f.ID = id
	}
	if err := f.Validate(); err != nil {
		return Fragment{}, err
	}
	return f.Normalized(), nil
}

func readYAMLFragment(_, _ string, data []byte) (Fragment, error) {
	return ParseFragmentYAML(data)
}

// LoadFragmentFile reads a YAML or Go plugin from disk.
func LoadFragmentFile(path string) (FragmentFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	read, ok := readers[ext]
	if !ok {
		return FragmentFile{}, fmt.Errorf("plugin: %s: unsupported extension %q", path, ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return FragmentFile{}, fmt.Errorf("plugin: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FragmentFile{}, fmt.Errorf("plugin: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FragmentFile{}, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := read(path, name, data)
	if err != nil {
		return FragmentFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	return FragmentFile{Fragment: f, Path: filepath.Clean(path)}, nil
}

// LoadFragmentDir loads every YAML and Go plugin in dir, sorted by path.
// Missing directories are treated as "no plugins".
func LoadFragmentDir(dir string) ([]FragmentFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var files []FragmentFile
	for _, entry := range entries {
		if entry.IsDir() || !IsFragmentFile(entry.Name()) {
			continue
		}
		file, err := LoadFragmentFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
