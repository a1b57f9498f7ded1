package binary

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ReceiptFile is written into every install directory.
const ReceiptFile = ".binstall.yaml"

// Receipt records what was installed into a directory.
type Receipt struct {
	Repo        string    `yaml:"repo"`
	Tag         string    `yaml:"tag"`
	Name        string    `yaml:"name"`
	Binary      string    `yaml:"binary"`
	Asset       string    `yaml:"asset"`
	Target      string    `yaml:"target"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// WriteReceipt stores r in dir.
func WriteReceipt(dir string, r *Receipt) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	path := filepath.Join(dir, ReceiptFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename receipt: %w", err)
	}
	return nil
}

// ReadReceipt loads the receipt in dir.
func ReadReceipt(dir string) (*Receipt, error) {
	data, err := os.ReadFile(filepath.Join(dir, ReceiptFile))
	if err != nil {
		return nil, err
	}

	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse receipt in %s: %w", dir, err)
	}
	if r.Repo == "" || r.Binary == "" {
		return nil, fmt.Errorf("incomplete receipt in %s", dir)
	}
	return &r, nil
}
