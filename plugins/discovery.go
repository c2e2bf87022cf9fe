package plugins

import (
	"fmt"

	"github.com/kingrea/overture/internal/config"
	"github.com/kingrea/overture/internal/script"
)

// Discover loads YAML and Go fragments from every directory, rejecting
// duplicate ids.
func Discover(dirs ...string) ([]FragmentFile, error) {
	var all []FragmentFile
	seen := make(map[string]string)
	for _, dir := range dirs {
		files, err := LoadFragmentDir(dir)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			id := file.Fragment.ID
			if existing, ok := seen[id]; ok {
				return nil, fmt.Errorf("plugin: duplicate fragment id %s (%s and %s)", id, existing, file.Path)
			}
			seen[id] = file.Path
			all = append(all, file)
		}
	}
	return all, nil
}

// DiscoverConfigured loads the fragments from the project's plugin
// directories.
func DiscoverConfigured(cfg *config.Config) ([]FragmentFile, error) {
	if cfg == nil {
		return nil, nil
	}
	return Discover(cfg.PluginDirs()...)
}

// Apply appends the commands of every fragment that targets s and returns how
// many entries were added.
func Apply(s *script.Script, files []FragmentFile) int {
	if s == nil {
		return 0
	}
	added := 0
	for _, file := range files {
		if !file.Fragment.AppliesTo(s.ID) {
			continue
		}
		s.Append(file.Fragment.Commands...)
		added += len(file.Fragment.Commands)
	}
	return added
}
