// Package editor wraps the image-editing capability the converter
// delegates to. Callers hold only the small Session surface and probe
// optional capabilities by type assertion, so a backend that cannot
// rotate or tune quality still works as a plain encoder.
package editor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
)

// Factory yields an editor session for a file on disk. Open fails when
// the file's format is unsupported by this build.
type Factory interface {
	Open(path string) (Session, error)
}

// Session is the minimum every editor backend must support.
type Session interface {
	// Save encodes the working image to path with the given MIME type
	// and returns the written path.
	Save(path string, mime string) (string, error)
	// Close releases the working buffer. Safe to call on every exit path.
	Close() error
}

// Optional capabilities. Absence is a no-op for the caller, not an error.
type QualitySetter interface {
	SetQuality(quality int)
}

type Rotator interface {
	Rotate(degrees int)
}

type MetadataStripper interface {
	StripMetadata()
}

// DefaultQuality applies when a session's quality was never set.
const DefaultQuality = 82

// WebPEditor is the built-in Factory: stdlib decoders for JPEG/PNG/GIF,
// chai2010/webp for WebP in and out, imaging for rotation.
type WebPEditor struct{}

func NewWebPEditor() *WebPEditor {
	return &WebPEditor{}
}

func (WebPEditor) Open(path string) (Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEditorUnavailable, err)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		// HEIC/HEIF and anything else without a registered decoder
		// lands here: the format is simply unsupported by this build.
		return nil, fmt.Errorf("%w: %v", domain.ErrEditorUnavailable, err)
	}

	return &session{img: img, quality: DefaultQuality}, nil
}

// decode sniffs the RIFF container explicitly because WebP is not
// registered with the stdlib image package.
func decode(r io.Reader) (image.Image, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	full := io.MultiReader(bytes.NewReader(header[:n]), r)

	if n == 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")) {
		return webp.Decode(full)
	}

	img, _, err := image.Decode(full)
	return img, err
}

type session struct {
	img     image.Image
	quality int
}

func (s *session) SetQuality(quality int) {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	s.quality = quality
}

func (s *session) Rotate(degrees int) {
	if s.img == nil {
		return
	}
	switch degrees {
	case 90:
		s.img = imaging.Rotate90(s.img)
	case -90:
		s.img = imaging.Rotate270(s.img)
	case 180:
		s.img = imaging.Rotate180(s.img)
	}
}

// StripMetadata is satisfied trivially: decode-then-encode never carries
// EXIF or XMP blocks into the output.
func (s *session) StripMetadata() {}

func (s *session) Save(path string, mime string) (string, error) {
	if s.img == nil {
		return "", fmt.Errorf("%w: session closed", domain.ErrEncodeFailed)
	}

	// Encode into a temp file and rename it over the target only once
	// the encode succeeded. In-place re-encodes write over their own
	// source, so creating the target directly would truncate the
	// original before the encoder has produced a single byte.
	f, err := os.CreateTemp(filepath.Dir(path), ".webp-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncodeFailed, err)
	}
	tmp := f.Name()

	switch mime {
	case domain.MimeWebP:
		err = webp.Encode(f, s.img, &webp.Options{Lossless: false, Quality: float32(s.quality)})
	default:
		err = fmt.Errorf("unsupported output type %q", mime)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", domain.ErrEncodeFailed, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", domain.ErrEncodeFailed, err)
	}
	return path, nil
}

func (s *session) Close() error {
	s.img = nil
	return nil
}
