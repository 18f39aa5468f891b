// Package store loads and saves categorization rule files.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"

	"gopkg.in/yaml.v3"
)

// ErrNoRules is returned when a rules file parses but holds no rule.
var ErrNoRules = errors.New("rules file contains no rules")

// RuleStore reads categorization rules from a YAML file.
type RuleStore struct {
	RulesFile string
	logger    logging.Logger
}

// NewRuleStore creates a store for the given file.
func NewRuleStore(rulesFile string, logger logging.Logger) *RuleStore {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &RuleStore{RulesFile: rulesFile, logger: logger}
}

// FindConfigFile looks for a configuration file in standard locations.
func (s *RuleStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".statement-insights", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadRules reads the rules file. It returns (nil, nil) when no file is
// configured, so callers keep the built-in table. A configured file that is
// missing or invalid is an error.
func (s *RuleStore) LoadRules() ([]models.CategoryRule, error) {
	if s.RulesFile == "" {
		return nil, nil
	}

	filePath, err := s.FindConfigFile(s.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("rules file %s not found: %w", s.RulesFile, err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}

	var doc models.CategoryRules
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing rules file: %w", err)
	}
	if len(doc.Rules) == 0 {
		// Also accept a bare list without the top-level key.
		if err := yaml.Unmarshal(data, &doc.Rules); err != nil || len(doc.Rules) == 0 {
			return nil, fmt.Errorf("%s: %w", filePath, ErrNoRules)
		}
	}

	for i, rule := range doc.Rules {
		if !rule.Category.IsValid() {
			return nil, fmt.Errorf("%s: rule %d: unknown category %q", filePath, i+1, rule.Category)
		}
		for j, kw := range rule.Keywords {
			doc.Rules[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}

	s.logger.Debug("Loaded categorization rules",
		logging.F(logging.FieldPath, filePath),
		logging.F(logging.FieldCount, len(doc.Rules)))
	return doc.Rules, nil
}

// SaveRules writes rules to path, creating parent directories.
func (s *RuleStore) SaveRules(path string, rules []models.CategoryRule) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	data, err := yaml.Marshal(models.CategoryRules{Rules: rules})
	if err != nil {
		return fmt.Errorf("error marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing rules: %w", err)
	}

	s.logger.Debug("Saved categorization rules",
		logging.F(logging.FieldPath, path),
		logging.F(logging.FieldCount, len(rules)))
	return nil
}
