package usecase

import (
	"path"
	"strings"

	"github.com/harpa/backend/internal/domain"
)

// imageExtensions are the file types a renderer can show as product art.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FileIndex is the list of bare file names published next to the data.
type FileIndex []string

// NewFileIndex trims entries and drops blanks.
func NewFileIndex(names []string) FileIndex {
	idx := make(FileIndex, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			idx = append(idx, n)
		}
	}
	return idx
}

// FindImage returns the first image whose name starts with the record's
// canonical or raw UPC.
func (f FileIndex) FindImage(rec *domain.PlacementRecord) (string, bool) {
	if rec == nil {
		return "", false
	}
	prefixes := []string{rec.CanonicalUPC}
	if raw := strings.TrimSpace(rec.UPC); raw != "" && raw != rec.CanonicalUPC {
		prefixes = append(prefixes, raw)
	}

	for _, name := range f {
		if !imageExtensions[strings.ToLower(path.Ext(name))] {
			continue
		}
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(name, p) {
				return name, true
			}
		}
	}
	return "", false
}

// FindPlanogramPDF returns the first PDF whose name contains the planogram ID.
func (f FileIndex) FindPlanogramPDF(planogramID string) (string, bool) {
	if planogramID == "" {
		return "", false
	}
	for _, name := range f {
		if strings.Contains(name, planogramID) && strings.HasSuffix(strings.ToLower(name), ".pdf") {
			return name, true
		}
	}
	return "", false
}
