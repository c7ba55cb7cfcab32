package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/cubeface/internal/config"
)

// ErrPresetNotFound is returned when no preset has the requested name.
var ErrPresetNotFound = errors.New("capture preset not found")

// Preset is a named capture configuration.
type Preset struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Config      *config.CaptureConfig `json:"config"`
	CreatedAt   int64                 `json:"created_at"`
	UpdatedAt   int64                 `json:"updated_at"`
}

// ListPresets returns all presets ordered by name.
func (db *DB) ListPresets() ([]Preset, error) {
	rows, err := db.Query(`SELECT preset_id, name, description, config_json, created_at, updated_at
	          FROM capture_presets
	          ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presets: %w", err)
	}
	return presets, nil
}

// GetPreset returns the preset called name or ErrPresetNotFound.
func (db *DB) GetPreset(name string) (*Preset, error) {
	row := db.QueryRow(`SELECT preset_id, name, description, config_json, created_at, updated_at
	          FROM capture_presets
	          WHERE name = ?`, name)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return p, err
}

// SavePreset inserts p or replaces the preset with the same name. The
// config is validated first; p.ID and timestamps are filled from the
// stored row.
func (db *DB) SavePreset(p *Preset) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("preset name is required")
	}
	if p.Config == nil {
		return errors.New("preset config is required")
	}
	if err := p.Config.Validate(); err != nil {
		return fmt.Errorf("invalid preset config: %w", err)
	}
	data, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("failed to encode preset config: %w", err)
	}

	_, err = db.Exec(`INSERT INTO capture_presets (name, description, config_json)
	          VALUES (?, ?, ?)
	          ON CONFLICT(name) DO UPDATE SET
	              description = excluded.description,
	              config_json = excluded.config_json,
	              updated_at = UNIXEPOCH()`,
		p.Name, p.Description, string(data))
	if err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}

	stored, err := db.GetPreset(p.Name)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// DeletePreset removes the preset called name.
func (db *DB) DeletePreset(name string) error {
	result, err := db.Exec(`DELETE FROM capture_presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (*Preset, error) {
	var p Preset
	var configJSON string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &configJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan preset: %w", err)
	}
	cfg, err := config.ParseCaptureConfig([]byte(configJSON))
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	p.Config = cfg
	return &p, nil
}
