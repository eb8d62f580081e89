package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library maps names to IR code strings so CLI invocations can say
// "@tv_power" instead of pasting a pulse train.
type Library struct {
	Codes map[string]string `yaml:"codes"`
}

// LoadLibrary reads a YAML code library. An empty path yields an empty
// library.
func LoadLibrary(path string) (*Library, error) {
	lib := &Library{Codes: map[string]string{}}
	if path == "" {
		return lib, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read code library: %w", err)
	}
	if err := yaml.Unmarshal(raw, lib); err != nil {
		return nil, fmt.Errorf("failed to parse code library: %w", err)
	}
	if lib.Codes == nil {
		lib.Codes = map[string]string{}
	}
	return lib, nil
}

// Resolve expands an "@name" reference through the library; anything else
// passes through unchanged.
func (l *Library) Resolve(ref string) (string, error) {
	if !strings.HasPrefix(ref, "@") {
		return ref, nil
	}
	name := strings.TrimPrefix(ref, "@")
	code, ok := l.Codes[name]
	if !ok {
		return "", fmt.Errorf("code %q not in library", name)
	}
	return code, nil
}
