// Package archive inspects downloaded chapter files on disk. The server
// packages chapters either as CBZ (zip of page images) or as PDF; the
// pages subcommand reports the page count per file.
package archive

import (
	"archive/zip"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".avif": {},
}

// Pages returns the number of pages in a downloaded chapter file.
func Pages(path string) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbz", ".zip":
		return zipPages(path)
	case ".pdf":
		return pdfPages(path)
	default:
		return 0, fmt.Errorf("unsupported chapter archive %q", filepath.Base(path))
	}
}

func zipPages(path string) (int, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer reader.Close()

	count := 0
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name))
		if _, ok := imageExtensions[ext]; ok {
			count++
		}
	}
	return count, nil
}

func pdfPages(path string) (int, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer file.Close()
	return reader.NumPage(), nil
}
