package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEmailProviders are consumer mail domains that never identify a company.
var DefaultEmailProviders = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"aol.com",
	"icloud.com",
	"me.com",
	"mac.com",
	"live.com",
	"msn.com",
	"protonmail.com",
}

type providersFile struct {
	Providers []string `yaml:"providers"`
}

// LoadEmailProviders reads the provider denylist from a YAML file of the form
//
//	providers:
//	  - gmail.com
//
// An empty path returns DefaultEmailProviders.
func LoadEmailProviders(path string) ([]string, error) {
	if path == "" {
		return DefaultEmailProviders, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers file: %w", err)
	}
	defer f.Close()

	var pf providersFile
	if err := yaml.NewDecoder(f).Decode(&pf); err != nil {
		return nil, fmt.Errorf("decode providers file: %w", err)
	}
	out := make([]string, 0, len(pf.Providers))
	for _, p := range pf.Providers {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
