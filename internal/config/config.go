// Package config persists user settings (lead times and export options)
// across sessions as a YAML file. Validation happens here, at the settings
// boundary, so the deriver can assume every lead time is a valid non-negative
// integer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"bidcal/internal/models"
)

// DefaultPath is the settings file used when the caller does not override it.
const DefaultPath = "bidcal-settings.yaml"

// Settings is the persisted configuration surface.
type Settings struct {
	LeadTimes models.LeadTimeSettings `yaml:"lead_times"`
	Export    models.ExportOptions    `yaml:"export"`
}

// Default returns the stock settings: default lead times, internal milestones
// included, and the 1-day reminder enabled.
func Default() Settings {
	return Settings{
		LeadTimes: models.DefaultLeadTimes(),
		Export: models.ExportOptions{
			IncludeInternal: true,
			Remind1Day:      true,
		},
	}
}

// Validate rejects malformed lead times before they can reach the deriver.
func (s Settings) Validate() error {
	checks := []struct {
		name string
		days int
	}{
		{"bond_request_days", s.LeadTimes.BondRequestDays},
		{"finalize_rfi_days", s.LeadTimes.FinalizeRFIDays},
		{"finalize_bid_package_days", s.LeadTimes.FinalizeBidPackageDays},
		{"subcontractor_bid_days", s.LeadTimes.SubcontractorBidDays},
		{"scope_review_days", s.LeadTimes.ScopeReviewDays},
		{"addendum_check_days", s.LeadTimes.AddendumCheckDays},
	}
	for _, c := range checks {
		if c.days < 0 {
			return fmt.Errorf("lead time %s must be non-negative, got %d", c.name, c.days)
		}
	}
	return nil
}

// Load reads settings from the given YAML path. On first run (file missing) it
// writes and returns the defaults. Keys absent from the file keep their
// default values; explicit values are validated.
func Load(path string) (Settings, error) {
	if path == "" {
		return Settings{}, errors.New("settings path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s := Default()
			if err := Save(path, s); err != nil {
				return s, fmt.Errorf("failed to write default settings: %w", err)
			}
			return s, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	// Unmarshal over the defaults so missing keys fall through.
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes the settings atomically: temp file in the same directory, then
// rename over the target.
func Save(path string, s Settings) error {
	if path == "" {
		return errors.New("settings path is empty")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bidcal-settings-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
