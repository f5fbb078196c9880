package usecase

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// OrientationReader maps a JPEG file to the rotation, in degrees, that
// must be baked into the pixels before encoding.
type OrientationReader interface {
	Rotation(path string) int
}

// ExifOrientationReader reads the EXIF orientation tag. Every failure
// mode (no file, no EXIF block, malformed tag) means "no rotation";
// orientation is an optimization, never a reason to fail an upload.
type ExifOrientationReader struct{}

func NewExifOrientationReader() *ExifOrientationReader {
	return &ExifOrientationReader{}
}

func (ExifOrientationReader) Rotation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return RotationForOrientation(orientation)
}

// RotationForOrientation maps the EXIF orientation tag values this
// system corrects. Mirrored orientations (2, 4, 5, 7) pass through
// untouched.
func RotationForOrientation(tag int) int {
	switch tag {
	case 3:
		return 180
	case 6:
		return -90
	case 8:
		return 90
	default:
		return 0
	}
}
