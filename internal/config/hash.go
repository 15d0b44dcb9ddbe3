package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumManifest is the on-disk .checksums format: filename → BLAKE3 hex.
type ChecksumManifest struct {
	Hashes map[string]string `yaml:"hashes"`
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Lock records the current config file's checksum in a .checksums manifest
// next to it. The manifest authorizes the current content: a later Check
// fails if the file changed without a re-lock.
func Lock(configPath string) error {
	hash, err := ComputeBlake3Hash(configPath)
	if err != nil {
		return err
	}

	manifest := ChecksumManifest{
		Hashes: map[string]string{
			filepath.Base(configPath): hash,
		},
	}

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal checksum manifest: %w", err)
	}

	manifestPath := checksumPath(configPath)
	if err := os.WriteFile(manifestPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", manifestPath, err)
	}

	return nil
}

// Check verifies the config file against its .checksums manifest.
// A missing manifest is an error: the config carries secrets references and
// must be explicitly authorized with 'portcullis config lock'.
func Check(configPath string) error {
	manifestPath := checksumPath(configPath)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("no .checksums manifest found at %s; run 'portcullis config lock'", manifestPath)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", manifestPath, err)
	}

	name := filepath.Base(configPath)
	expected, ok := manifest.Hashes[name]
	if !ok {
		return fmt.Errorf("file %s not in .checksums manifest; run 'portcullis config lock'", name)
	}

	actual, err := ComputeBlake3Hash(configPath)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", name, err)
	}

	if actual != expected {
		return fmt.Errorf("hash mismatch for %s (expected %s, got %s); "+
			"re-run 'portcullis config lock' if the change is intentional", name, expected, actual)
	}

	return nil
}

func checksumPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".checksums")
}
