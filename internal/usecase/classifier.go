package usecase

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
)

// animatedScanLimit bounds how much of a GIF is read while looking for
// animation frames.
const animatedScanLimit = 200 << 10 // 200 KiB

// gceMarker is the byte sequence preceding each animation frame's
// control block: block terminator, extension introducer, Graphic
// Control Extension label, block size.
var gceMarker = []byte{0x00, 0x21, 0xF9, 0x04}

// alphaSampleGrid is the edge length of the evenly spaced pixel grid
// probed for transparency.
const alphaSampleGrid = 9

// Classifier resolves an upload's true content type and flags the
// special cases that change conversion behaviour.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(up domain.Upload) domain.Classification {
	// Extension override: a file already named .webp is rewritten in
	// place even when sniffing disagrees, so the public URL survives.
	if strings.EqualFold(filepath.Ext(up.Path), ".webp") {
		return domain.Classification{
			Eligible:     true,
			ResolvedType: domain.MimeWebP,
		}
	}

	cls := domain.Classification{ResolvedType: c.resolveType(up.Path, up.MimeType)}
	if !domain.ConvertibleTypes[cls.ResolvedType] {
		return cls
	}
	cls.Eligible = true

	switch cls.ResolvedType {
	case domain.MimeGIF:
		cls.Animated = isAnimatedGIF(up.Path)
		if cls.Animated {
			// Flattening an animation to one frame is worse than
			// keeping the original GIF.
			cls.Eligible = false
		}
	case domain.MimePNG:
		cls.HasAlpha = pngHasAlpha(up.Path)
	}

	return cls
}

// resolveType prefers the sniffed content type over the caller-declared
// one; sniffing failures fall back silently to the declaration.
func (c *Classifier) resolveType(path, declared string) string {
	declared = normalizeMime(declared)

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return declared
	}
	resolved := normalizeMime(detected.String())
	if resolved == "application/octet-stream" {
		// The sniffer gave up; trust the declaration instead.
		return declared
	}
	return resolved
}

// normalizeMime strips parameters and folds the common image/jpg alias.
func normalizeMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "image/jpg" {
		return domain.MimeJPEG
	}
	return mime
}

// isAnimatedGIF scans the head of the file for repeated Graphic Control
// Extension markers. More than one marker means multiple frames. This
// is a bounded heuristic, not a GIF parser; false negatives on exotic
// encodings are acceptable.
func isAnimatedGIF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, animatedScanLimit))
	if err != nil {
		return false
	}
	return bytes.Count(head, gceMarker) > 1
}

// pngHasAlpha decodes the PNG and probes an evenly spaced sample grid
// for any non-opaque pixel. Palette transparency counts without
// sampling. When decoding fails the answer is "has alpha": the policy
// then fails toward preserving quality, not degrading it.
func pngHasAlpha(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return true
	}

	// Palette-indexed PNGs report transparency through their palette
	// entries, so check those directly before sampling.
	if p, ok := img.(*image.Paletted); ok {
		for _, entry := range p.Palette {
			if _, _, _, a := entry.RGBA(); a < 0xffff {
				return true
			}
		}
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return false
	}

	for gy := 0; gy < alphaSampleGrid; gy++ {
		for gx := 0; gx < alphaSampleGrid; gx++ {
			x := bounds.Min.X + gx*(w-1)/(alphaSampleGrid-1)
			y := bounds.Min.Y + gy*(h-1)/(alphaSampleGrid-1)
			if _, _, _, a := img.At(x, y).RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}
