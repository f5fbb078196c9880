package usecase

import (
	"path/filepath"
	"strings"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
)

// Policy is the pure classification -> encode-parameters mapping.
// Constructed once at startup from config; never mutated afterwards.
type Policy struct {
	photoQuality   int
	graphicQuality int
}

// NewPolicy clamps both tiers to [0,100] so a caller-supplied override
// can never push the encoder out of range.
func NewPolicy(photoQuality, graphicQuality int) *Policy {
	return &Policy{
		photoQuality:   clampQuality(photoQuality),
		graphicQuality: clampQuality(graphicQuality),
	}
}

// Quality picks the encode quality tier. PNGs with alpha and GIFs carry
// hard edges or transparency that lossy WebP mangles at photo quality,
// so they get the higher tier.
func (p *Policy) Quality(cls domain.Classification) int {
	if cls.HasAlpha || cls.ResolvedType == domain.MimeGIF {
		return p.graphicQuality
	}
	return p.photoQuality
}

// InPlace reports whether the output should overwrite the source path.
// Files already named .webp rewrite in place: the public URL stays
// valid and the unique-naming step never appends a spurious suffix.
func (p *Policy) InPlace(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".webp")
}

func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}
