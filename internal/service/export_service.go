package service

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// ExportCollection writes records as the pretty JSON file the public site serves
func ExportCollection[T any](w io.Writer, records []T) error {
	data, err := MarshalPretty(nonNil(records))
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ExportToFile writes records to path, creating its directory if needed
func ExportToFile[T any](path string, records []T) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := ExportCollection(file, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}

	log.Printf("Exported %d records to %s", len(records), path)
	return nil
}
