// internal/descriptor/definition.go
package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kshehadeh/atlassian-addon-helper/pkg/config"
)

// Base is the add-on's fixed identity, merged with component fragments by
// Assemble. It comes from config, optionally overridden by a YAML or JSON
// definition file so identity can be edited without a rebuild.
type Base struct {
	Key         string   `json:"key" yaml:"key"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Vendor      Vendor   `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	BaseURL     string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Scopes      []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	APIVersion  int      `json:"api_version,omitempty" yaml:"api_version,omitempty"`
}

// LoadBase builds the add-on identity from config and the optional
// definition file named by ADDON_DESCRIPTOR_FILE.
func LoadBase(cfg config.Config) (Base, error) {
	base := Base{Key: cfg.AddonKey, Name: cfg.AddonName, BaseURL: cfg.BaseURL}
	if cfg.AddonPath == "" {
		return base, nil
	}
	b, err := os.ReadFile(cfg.AddonPath)
	if err != nil {
		return Base{}, err
	}
	var file Base
	if strings.ToLower(filepath.Ext(cfg.AddonPath)) == ".json" {
		if err := json.Unmarshal(b, &file); err != nil {
			return Base{}, err
		}
	} else {
		if err := yaml.Unmarshal(b, &file); err != nil {
			return Base{}, fmt.Errorf("yaml parse: %w", err)
		}
	}
	if file.Key != "" {
		base.Key = file.Key
	}
	if file.Name != "" {
		base.Name = file.Name
	}
	if file.Description != "" {
		base.Description = file.Description
	}
	if file.Vendor.Name != "" || file.Vendor.URL != "" {
		base.Vendor = file.Vendor
	}
	if file.BaseURL != "" {
		base.BaseURL = file.BaseURL
	}
	if len(file.Scopes) > 0 {
		base.Scopes = file.Scopes
	}
	if file.APIVersion != 0 {
		base.APIVersion = file.APIVersion
	}
	return base, nil
}
