package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fieldlog/internal/core"
	"fieldlog/internal/report"
)

// FileSink writes exports into a directory, replacing files atomically.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(_ context.Context, _ core.CompanyID, filename, text string) error {
	tmp, err := os.CreateTemp(s.dir, "."+filename+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := report.WriteCSVFile(tmp, text); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, filename)); err != nil {
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// Path returns where filename is written.
func (s *FileSink) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}
