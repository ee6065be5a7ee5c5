// Package profile implements named, persisted invocations: a saved set of
// flag values for a command/subcommand pair, written by --save-profile and
// managed by the profile subcommands. Nothing in the CLI loads a saved
// profile's options back into flag values.
package profile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// New builds a profile with the given identity, timestamped now, ready to
// have options attached via SetOption before Manager.Save.
func New(name, commandType, subcommandType, description string) model.Profile {
	now := time.Now().UTC().Format(time.RFC3339)
	return model.Profile{
		Name:           name,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
		CommandType:    commandType,
		SubcommandType: subcommandType,
		Options:        map[string]interface{}{},
	}
}

// SetOption attaches an option value to a profile and bumps its
// last-updated timestamp.
func SetOption(p *model.Profile, key string, value interface{}) {
	if p.Options == nil {
		p.Options = map[string]interface{}{}
	}
	p.Options[key] = value
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// GetOptionString returns an option's value coerced to a string, or false
// if the key is absent.
func GetOptionString(p model.Profile, key string) (string, bool) {
	v, ok := p.Options[key]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return "", false
}

// Manager persists profiles as one TOML file per profile under a
// directory.
type Manager struct {
	profilesDir string
}

// NewManager creates a Manager rooted at profilesDir, creating the directory
// if necessary.
func NewManager(profilesDir string) (*Manager, error) {
	if err := os.MkdirAll(profilesDir, 0755); err != nil {
		return nil, nelsterr.Config("failed to create profiles directory %s: %v", profilesDir, err)
	}
	return &Manager{profilesDir: profilesDir}, nil
}

func (m *Manager) profilePath(name string) string {
	return filepath.Join(m.profilesDir, name+".toml")
}

// Save writes a profile to its TOML file, overwriting any existing file
// with the same name.
func (m *Manager) Save(p model.Profile) error {
	path := m.profilePath(p.Name)
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return nelsterr.Config("failed to serialize profile: %v", err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return nelsterr.Config("failed to write profile to %s: %v", path, err)
	}
	return nil
}

// Load reads a profile by name.
func (m *Manager) Load(name string) (model.Profile, error) {
	path := m.profilePath(name)
	if _, err := os.Stat(path); err != nil {
		return model.Profile{}, nelsterr.Config("profile %q not found", name)
	}

	var p model.Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return model.Profile{}, nelsterr.Config("failed to parse profile: %v", err)
	}
	return p, nil
}

// List returns every saved profile as a ProfileInfo, sorted by name.
// Corrupt profile files are skipped rather than failing the whole listing.
func (m *Manager) List() ([]model.ProfileInfo, error) {
	entries, err := os.ReadDir(m.profilesDir)
	if err != nil {
		return nil, nelsterr.Config("failed to read profiles directory %s: %v", m.profilesDir, err)
	}

	var infos []model.ProfileInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".toml")
		p, err := m.Load(name)
		if err != nil {
			continue
		}
		infos = append(infos, model.ProfileInfo{
			Name:           p.Name,
			Description:    p.Description,
			CommandType:    p.CommandType,
			SubcommandType: p.SubcommandType,
			UpdatedAt:      p.UpdatedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a profile's file.
func (m *Manager) Delete(name string) error {
	path := m.profilePath(name)
	if _, err := os.Stat(path); err != nil {
		return nelsterr.Config("profile %q not found", name)
	}
	if err := os.Remove(path); err != nil {
		return nelsterr.Config("failed to delete profile %s: %v", path, err)
	}
	return nil
}

// Exists reports whether a profile with the given name is saved.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.profilePath(name))
	return err == nil
}

// Export writes a saved profile out to an arbitrary file path.
func (m *Manager) Export(name, outputPath string) error {
	p, err := m.Load(name)
	if err != nil {
		return err
	}
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return nelsterr.Config("failed to serialize profile: %v", err)
	}
	if err := os.WriteFile(outputPath, []byte(buf.String()), 0644); err != nil {
		return nelsterr.Config("failed to write to %s: %v", outputPath, err)
	}
	return nil
}

// Import reads a profile from an arbitrary file path and saves it under
// the manager's directory, optionally renaming it first.
func (m *Manager) Import(inputPath string, newName string) (model.Profile, error) {
	var p model.Profile
	if _, err := toml.DecodeFile(inputPath, &p); err != nil {
		return model.Profile{}, nelsterr.Config("failed to parse profile: %v", err)
	}
	if newName != "" {
		p.Name = newName
	}
	if err := m.Save(p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}
