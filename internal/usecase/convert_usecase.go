package usecase

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
	"github.com/basterrika/wp-image-optimizer/pkg/editor"
	"github.com/basterrika/wp-image-optimizer/pkg/logger"
)

// Storage is the slice of the host filesystem facilities the converter
// needs: collision-free naming and best-effort deletion.
type Storage interface {
	UniquePath(dir, name string) string
	Delete(path string) error
}

// ConvertUsecase runs the per-upload conversion pipeline:
// classify -> orient -> policy -> encode -> replace. Any stage error
// short-circuits to "return the descriptor unchanged" because a broken
// upload is worse than a missed optimization.
type ConvertUsecase struct {
	classifier  *Classifier
	orientation OrientationReader
	policy      *Policy
	editor      editor.Factory
	storage     Storage
}

func NewConvertUsecase(factory editor.Factory, storage Storage, policy *Policy, orientation OrientationReader) *ConvertUsecase {
	return &ConvertUsecase{
		classifier:  NewClassifier(),
		orientation: orientation,
		policy:      policy,
		editor:      factory,
		storage:     storage,
	}
}

// Convert is the single entry point the upload pipeline calls. It never
// returns an error: failures log and pass the original descriptor
// through untouched.
func (uc *ConvertUsecase) Convert(up domain.Upload) domain.Upload {
	start := time.Now()

	out, err := uc.convert(up)
	if err != nil {
		logger.Conversion(up.Path, false, err.Error(), time.Since(start))
		return up
	}

	logger.Conversion(out.Path, true, "", time.Since(start))
	return out
}

func (uc *ConvertUsecase) convert(up domain.Upload) (domain.Upload, error) {
	cls := uc.classifier.Classify(up)
	if cls.Animated {
		return up, fmt.Errorf("%w: animated gif", domain.ErrNotEligible)
	}
	if !cls.Eligible {
		return up, fmt.Errorf("%w: %s", domain.ErrNotEligible, cls.ResolvedType)
	}

	rotation := 0
	if cls.ResolvedType == domain.MimeJPEG {
		rotation = uc.orientation.Rotation(up.Path)
	}

	quality := uc.policy.Quality(cls)
	inPlace := uc.policy.InPlace(up.Path)

	target := up.Path
	if !inPlace {
		dir := filepath.Dir(up.Path)
		stem := strings.TrimSuffix(filepath.Base(up.Path), filepath.Ext(up.Path))
		target = uc.storage.UniquePath(dir, stem+".webp")
	}

	sess, err := uc.editor.Open(up.Path)
	if err != nil {
		return up, err
	}
	defer sess.Close()

	// Rotation has to land before the encode so it is baked into the
	// final pixels. Each capability is optional; absence is a no-op.
	if rotation != 0 {
		if r, ok := sess.(editor.Rotator); ok {
			r.Rotate(rotation)
		}
	}
	if q, ok := sess.(editor.QualitySetter); ok {
		q.SetQuality(quality)
	}
	if m, ok := sess.(editor.MetadataStripper); ok {
		m.StripMetadata()
	}

	saved, err := sess.Save(target, domain.MimeWebP)
	if err != nil {
		return up, err
	}
	if _, err := os.Stat(saved); err != nil {
		return up, fmt.Errorf("%w: output missing after save", domain.ErrEncodeFailed)
	}

	out := up
	out.MimeType = domain.MimeWebP

	if !inPlace {
		// The new file is already valid, so a failed delete only
		// orphans the original; it never rolls back the conversion.
		if err := uc.storage.Delete(up.Path); err != nil {
			logger.Debug().Err(err).Str("path", up.Path).Msg("Original not removed after conversion")
		}
		out.Path = saved
		if rewritten, err := replaceURLFilename(up.URL, filepath.Base(saved)); err == nil {
			out.URL = rewritten
		}
	}

	return out, nil
}

// replaceURLFilename swaps only the filename component of a URL,
// leaving scheme, host, directory, query and fragment untouched.
func replaceURLFilename(rawURL, filename string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	dir := path.Dir(u.Path)
	if dir == "." || dir == "/" {
		u.Path = "/" + filename
	} else {
		u.Path = dir + "/" + filename
	}
	return u.String(), nil
}
