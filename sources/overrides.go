package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides is the YAML document accepted by SOURCES_FILE.
//
//	disable:
//	  - City of Brampton
//	add:
//	  - name: Test Legislature
//	    base_url: https://legislature.example.ca
//	    endpoints: {officials: /members}
type Overrides struct {
	Disable []string `yaml:"disable"`
	Add     []Source `yaml:"add"`
}

// LoadOverrides reads and parses an overrides file.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	raw, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("read sources file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return o, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	return o, nil
}

// Apply returns a new registry with disabled sources removed and added sources appended.
// An added source with the name of an existing one replaces it in place.
func (r *Registry) Apply(o Overrides) (*Registry, error) {
	disabled := make(map[string]bool, len(o.Disable))
	for _, name := range o.Disable {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("cannot disable unknown source %s", name)
		}
		disabled[name] = true
	}

	added := make(map[string]Source, len(o.Add))
	for _, s := range o.Add {
		added[s.Name] = s
	}

	var list []Source
	for _, s := range r.sources {
		if disabled[s.Name] {
			continue
		}
		if repl, ok := added[s.Name]; ok {
			list = append(list, repl)
			delete(added, s.Name)
			continue
		}
		list = append(list, s)
	}
	for _, s := range o.Add {
		if _, pending := added[s.Name]; pending {
			list = append(list, s)
		}
	}
	return NewRegistry(list...)
}
