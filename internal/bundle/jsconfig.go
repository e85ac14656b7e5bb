// ABOUTME: Loads import aliases from a jsconfig.json / tsconfig.json file
// ABOUTME: Accepts JSON with comments and trailing commas as editors write it

package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/tidwall/jsonc"
)

type jsconfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadAliases extracts aliases from compilerOptions.paths. An entry such as
// "@/*": ["./src/*"] becomes "@" -> "src". Only the first target of each entry
// is used.
func LoadAliases(data []byte) (map[string]string, error) {
	var cfg jsconfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing jsconfig: %w", err)
	}

	aliases := make(map[string]string, len(cfg.CompilerOptions.Paths))
	for key, targets := range cfg.CompilerOptions.Paths {
		if len(targets) == 0 {
			continue
		}
		prefix := strings.TrimSuffix(strings.TrimSuffix(key, "*"), "/")
		// Targets are relative to baseUrl; "." and "./" both mean the config's directory.
		target := path.Join(cfg.CompilerOptions.BaseURL, strings.TrimSuffix(targets[0], "*"))
		if prefix == "" || target == "." {
			return nil, fmt.Errorf("jsconfig path %q: empty alias or target", key)
		}
		aliases[prefix] = target
	}
	return aliases, nil
}

// LoadAliasesFile reads and parses a jsconfig file from disk.
func LoadAliasesFile(name string) (map[string]string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading jsconfig: %w", err)
	}
	return LoadAliases(data)
}
