package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"offgrid-planner/internal/model"
)

// Preset is a components file that scenarios can reference.
type Preset struct {
	Name        string     `json:"name"`
	File        string     `json:"file"`
	Description string     `json:"description,omitempty"`
	Components  Components `json:"energy_system_design"`
}

// Catalogue lists the presets found in a directory.
type Catalogue struct {
	Dir       string   `json:"dir"`
	UpdatedAt string   `json:"updated_at"` // ISO 8601 timestamp
	Presets   []Preset `json:"presets"`
}

// ScanPresets reads every .yaml/.yml/.json components file in dir, sorted by
// name. Files without an energy_system_design block are an error.
func ScanPresets(dir string) (*Catalogue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read component dir: %w", err)
	}
	cat := &Catalogue{Dir: dir, UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".json") || e.Name() == catalogueFile {
			continue
		}
		path := filepath.Join(dir, e.Name())
		w, err := readComponentsFile(path)
		if err != nil {
			return nil, err
		}
		if err := checkComponents(e.Name(), w.EnergySystem, model.SideEnergySystem); err != nil {
			return nil, err
		}
		cat.Presets = append(cat.Presets, Preset{
			Name:        strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			File:        e.Name(),
			Description: w.Description,
			Components:  w.EnergySystem,
		})
	}
	sort.Slice(cat.Presets, func(i, j int) bool { return cat.Presets[i].Name < cat.Presets[j].Name })
	return cat, nil
}

// Find returns the preset called name.
func (c *Catalogue) Find(name string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

const catalogueFile = "catalogue.json"

// DefaultCataloguePath is where the catalogue of dir is written.
func DefaultCataloguePath(dir string) string {
	if path := os.Getenv("CATALOGUE_FILE"); path != "" {
		return path
	}
	return filepath.Join(dir, catalogueFile)
}

// LoadCatalogue loads a catalogue from a JSON file
func LoadCatalogue(path string) (*Catalogue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue file: %w", err)
	}
	var c Catalogue
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue file: %w", err)
	}
	return &c, nil
}

// SaveCatalogue saves a catalogue to a JSON file
func SaveCatalogue(c *Catalogue, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalogue: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write catalogue file: %w", err)
	}
	return nil
}
