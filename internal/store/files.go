package store

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// #endregion

// #region files

// Files locates the whole-blob JSON documents the engine persists.
// Every write replaces the file in full, so a crash never leaves a
// document partially written.
type Files struct {
	Dir string
}

// NewFiles returns the file layout rooted at dir.
func NewFiles(dir string) *Files {
	return &Files{Dir: dir}
}

// QTablePath is the Q-table snapshot document.
func (f *Files) QTablePath() string { return filepath.Join(f.Dir, "q_table.json") }

// OuterPolicyPath is the outer-loop policy document.
func (f *Files) OuterPolicyPath() string { return filepath.Join(f.Dir, "outer_policy.json") }

// ErrorLogPath is the append-only error context log.
func (f *Files) ErrorLogPath() string { return filepath.Join(f.Dir, "error_log.json") }

// RecoveryLogPath is the append-only recovery result log.
func (f *Files) RecoveryLogPath() string { return filepath.Join(f.Dir, "recovery_log.json") }

// #endregion

// #region read-write

// WriteJSON marshals v with indentation and overwrites path in full,
// creating parent directories as needed.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSON unmarshals the whole document at path into out.
func ReadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a document is present on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// #endregion
