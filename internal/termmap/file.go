package termmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads a term map from a JSON object file. A missing file yields an
// empty map.
func Load(path string) (TermMap, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return TermMap{}, nil
	}
	if err != nil {
		return nil, err
	}

	var tm TermMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("parse glossary %s: %w", path, err)
	}
	if tm == nil {
		tm = TermMap{}
	}

	return tm, nil
}

// Save writes a term map as indented JSON, replacing the file atomically.
func Save(path string, tm TermMap) error {
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create glossary dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write glossary: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace glossary: %w", err)
	}

	return nil
}
