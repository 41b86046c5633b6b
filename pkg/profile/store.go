package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
)

// maxSuggestDistance bounds how far a "did you mean" candidate may be from
// the requested version.
const maxSuggestDistance = 3

// Store owns the profile documents and the active-selection file. All other
// packages receive resolved HardwareProfile values from here and never touch
// the files directly.
type Store struct {
	dir           string
	selectionFile string
}

// NewStore creates a Store reading documents from dir and persisting the
// active selection in selectionFile.
func NewStore(dir, selectionFile string) *Store {
	return &Store{dir: dir, selectionFile: selectionFile}
}

// SetActive validates that a document exists for version and persists it as
// the active selection. The write is atomic: a failed or interrupted call
// never leaves a torn selection, and a failed validation never writes at
// all. Setting the already-active version is a no-op success.
func (s *Store) SetActive(version string) error {
	if _, err := s.docPath(version); err != nil {
		return err
	}

	dir := filepath.Dir(s.selectionFile)
	tmp, err := os.CreateTemp(dir, ".hivectl-selection-*")
	if err != nil {
		return fmt.Errorf("failed to stage selection write: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(version + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write selection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to finalize selection: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set selection permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.selectionFile); err != nil {
		return fmt.Errorf("failed to persist selection: %w", err)
	}

	slog.Debug("active hardware profile set", "version", version, "file", s.selectionFile)
	return nil
}

// Active returns the persisted active version.
func (s *Store) Active() (string, error) {
	data, err := os.ReadFile(s.selectionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", hiveerrors.Newf(hiveerrors.ErrCodeNoActiveProfile,
				"no active hardware profile; run \"hivectl hardware set <version>\" first")
		}
		return "", fmt.Errorf("failed to read selection file %s: %w", s.selectionFile, err)
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", hiveerrors.Newf(hiveerrors.ErrCodeNoActiveProfile,
			"selection file %s is empty; run \"hivectl hardware set <version>\" first", s.selectionFile)
	}
	return version, nil
}

// Load parses and validates the document for version.
func (s *Store) Load(version string) (*HardwareProfile, error) {
	path, err := s.docPath(version)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile document %s: %w", path, err)
	}

	var p HardwareProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, hiveerrors.Wrap(hiveerrors.ErrCodeProfileInvalid, err,
			fmt.Sprintf("profile document %s is not valid YAML", path))
	}

	// The filename stem is authoritative for the lookup key.
	if p.Version == "" {
		p.Version = version
	} else if p.Version != version {
		return nil, hiveerrors.Newf(hiveerrors.ErrCodeProfileInvalid,
			"invalid profile field version: document declares %q but is stored as %q", p.Version, version).
			WithDetail("field", "version")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("loaded hardware profile",
		"version", p.Version,
		"controlHost", p.ControlHost,
		"nodes", len(p.ComputeNodes),
	)
	return &p, nil
}

// LoadActive resolves the active selection and loads its document.
func (s *Store) LoadActive() (*HardwareProfile, error) {
	version, err := s.Active()
	if err != nil {
		return nil, err
	}
	return s.Load(version)
}

// List returns the available profile versions in sorted order. A missing
// profiles directory yields an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profiles directory %s: %w", s.dir, err)
	}

	seen := make(map[string]bool)
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		version := strings.TrimSuffix(name, ext)
		if version == "" || seen[version] {
			continue
		}
		seen[version] = true
		versions = append(versions, version)
	}

	sort.Strings(versions)
	return versions, nil
}

// docPath resolves the document path for version, preferring .yaml over
// .yml. A missing document yields PROFILE_NOT_FOUND, with the closest
// existing version suggested when one is plausibly a typo.
func (s *Store) docPath(version string) (string, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(s.dir, version+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	msg := fmt.Sprintf("no profile document for version %q in %s", version, s.dir)
	if suggestion := s.suggest(version); suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return "", hiveerrors.New(hiveerrors.ErrCodeProfileNotFound, msg).WithDetail("version", version)
}

// suggest returns the known version closest to the requested one, or ""
// when nothing is close enough to be a likely typo.
func (s *Store) suggest(version string) string {
	known, err := s.List()
	if err != nil || len(known) == 0 {
		return ""
	}

	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range known {
		if d := levenshtein.ComputeDistance(version, candidate); d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}
	return best
}
