package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/goccy/go-yaml"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed apps.yaml
var builtin []byte

// Manifest is a list of apps in YAML form
type Manifest struct {
	Apps []types.App `yaml:"apps"`
}

var strict = bluemonday.StrictPolicy()

// ParseManifest decodes a manifest. A single-app document (name/url/icon at
// the top level) is accepted as well as an apps list.
func ParseManifest(data []byte) ([]types.App, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	apps := m.Apps
	if len(apps) == 0 {
		var single types.App
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		if single.Name != "" {
			apps = []types.App{single}
		}
	}

	out := make([]types.App, 0, len(apps))
	for _, a := range apps {
		a, err := clean(a)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Builtin returns the twelve default apps
func Builtin() []types.App {
	apps, err := ParseManifest(builtin)
	if err != nil {
		panic(fmt.Sprintf("catalog: builtin manifest: %v", err))
	}
	return apps
}

// clean strips markup from display strings and checks required fields
func clean(a types.App) (types.App, error) {
	a.Name = strings.TrimSpace(strict.Sanitize(a.Name))
	a.Icon = strings.TrimSpace(strict.Sanitize(a.Icon))
	a.URL = strings.TrimSpace(a.URL)
	if a.Name == "" || a.URL == "" {
		return a, fmt.Errorf("app requires name and url")
	}
	if strings.ContainsAny(a.URL, "<>\"") || strings.HasPrefix(strings.ToLower(a.URL), "javascript:") {
		return a, fmt.Errorf("app %q: invalid url", a.Name)
	}
	return a, nil
}
