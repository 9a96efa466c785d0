package kitbash

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Prefs holds the user-tunable behavior of the operator toolkit.
type Prefs struct {
	// CursorSetsTransformPreset makes cursor-to-selected switch the transform
	// pivot and orientation to the cursor, and cursor-to-origin restore the
	// previous pair.
	CursorSetsTransformPreset bool `yaml:"cursor_sets_transform_preset"`

	ExportPath        string `yaml:"export_path"`
	ExportTriangulate bool   `yaml:"export_triangulate"`
}

func DefaultPrefs() *Prefs {
	return &Prefs{
		CursorSetsTransformPreset: true,
		ExportTriangulate:         false,
	}
}

// LoadPrefs reads path over the defaults. A missing file is not an error;
// the defaults are returned.
func LoadPrefs(path string) (*Prefs, error) {
	prefs := DefaultPrefs()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading prefs from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("parsing prefs from %s: %w", path, err)
	}
	return prefs, nil
}

// SaveTo writes the prefs to path, creating parent directories as needed.
func (p *Prefs) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PrefsModule installs the preferences resource, loaded from Path when set.
type PrefsModule struct {
	Path string
}

func (m PrefsModule) Install(app *App, cmd *Commands) {
	prefs := DefaultPrefs()
	if m.Path != "" {
		loaded, err := LoadPrefs(m.Path)
		if err != nil {
			app.Logger().Warnf("prefs: %v, using defaults", err)
		} else {
			prefs = loaded
		}
	}
	app.addResources(prefs)
}
