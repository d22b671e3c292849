package coreimage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"corecatalog/internal/validation"
)

// DefaultCatalog returns the built-in Ubuntu Core table
func DefaultCatalog() Catalog {
	return Catalog{
		"x86_64": {
			"ubuntu-core-16-amd64.img.xz": {
				URLPrefix:    "https://cdimage.ubuntu.com/ubuntu-core/16/stable/current/",
				Aliases:      []string{"core", "core16"},
				OS:           "Ubuntu",
				Release:      "core-16",
				ReleaseTitle: "Core 16",
			},
			"ubuntu-core-18-amd64.img.xz": {
				URLPrefix:    "https://cdimage.ubuntu.com/ubuntu-core/18/stable/current/",
				Aliases:      []string{"core18"},
				OS:           "Ubuntu",
				Release:      "core-18",
				ReleaseTitle: "Core 18",
			},
			"ubuntu-core-20-amd64.img.xz": {
				URLPrefix:    "https://cdimage.ubuntu.com/ubuntu-core/20/stable/current/",
				Aliases:      []string{"core20"},
				OS:           "Ubuntu",
				Release:      "core-20",
				ReleaseTitle: "Core 20",
			},
			"ubuntu-core-22-amd64.img.xz": {
				URLPrefix:    "https://cdimage.ubuntu.com/ubuntu-core/22/stable/current/",
				Aliases:      []string{"core22"},
				OS:           "Ubuntu",
				Release:      "core-22",
				ReleaseTitle: "Core 22",
			},
		},
	}
}

// LoadCatalog reads a YAML catalog keyed by architecture, then image file name
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// LoadTable returns the table for arch, read from path when set and from
// the built-in catalog otherwise.
func LoadTable(arch, path string) (Table, error) {
	catalog := DefaultCatalog()
	if path != "" {
		var err error
		if catalog, err = LoadCatalog(path); err != nil {
			return nil, err
		}
	}
	return catalog.TableFor(arch), nil
}

// ValidateCatalog checks every entry of every table
func ValidateCatalog(catalog Catalog) error {
	for arch, table := range catalog {
		for _, name := range table.FileNames() {
			spec := table[name]
			checks := []error{
				validation.ValidateImageFileName(name),
				validation.ValidateURLPrefix(spec.URLPrefix),
				validation.ValidateAliases(spec.Aliases),
				validation.ValidateRequired("os", spec.OS),
				validation.ValidateRequired("release", spec.Release),
			}
			for _, err := range checks {
				if err != nil {
					return fmt.Errorf("catalog entry %s/%s: %w", arch, name, err)
				}
			}
		}
	}
	return nil
}
