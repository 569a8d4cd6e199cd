package rules

import (
	"fmt"

	"github.com/spf13/viper"

	"medidrop/pkg/domain"
)

// fileRule mirrors one row of the rules file.
type fileRule struct {
	Country     string `mapstructure:"country"`
	Class       string `mapstructure:"class"`
	Requirement string `mapstructure:"requirement"`
}

// LoadFile reads a rule table from a YAML/JSON/TOML file:
//
//	rules:
//	  - country: EG
//	    class: otc
//	    requirement: otc
//	  - country: EG
//	    class: insulin
//	    requirement: rx_cold_chain
//
// Loading happens once at startup; the resulting table is immutable.
func LoadFile(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var raw struct {
		Rules []fileRule `mapstructure:"rules"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	if len(raw.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	loaded := make([]Rule, 0, len(raw.Rules))
	for i, fr := range raw.Rules {
		country := domain.NormalizeCountry(fr.Country)
		if !country.Valid() {
			return nil, fmt.Errorf("rule %d: invalid country %q", i, fr.Country)
		}
		class := domain.NormalizeProductClass(fr.Class)
		if class == "" {
			return nil, fmt.Errorf("rule %d: product class is required", i)
		}
		req, err := ParseRequirement(fr.Requirement)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		loaded = append(loaded, Rule{Country: country, Class: class, Requirement: req})
	}
	return NewTable(loaded)
}
