package editor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chai2010/webp"
)

// VerifyWebPSupport checks once, at activation time, that this build can
// actually produce WebP output. A failure here means every per-file
// conversion would silently no-op forever, so the caller is expected to
// treat it as fatal and surface the reason to an operator.
func VerifyWebPSupport() error {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: 90}); err != nil {
		return fmt.Errorf("environment cannot encode WebP images: %w", err)
	}
	if buf.Len() == 0 {
		return errors.New("environment cannot encode WebP images: encoder produced no output")
	}
	return nil
}
