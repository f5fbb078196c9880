package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
)

func TestPolicyQualityTiers(t *testing.T) {
	p := NewPolicy(82, 95)

	photo := p.Quality(domain.Classification{ResolvedType: domain.MimeJPEG})
	alphaPNG := p.Quality(domain.Classification{ResolvedType: domain.MimePNG, HasAlpha: true})
	plainPNG := p.Quality(domain.Classification{ResolvedType: domain.MimePNG})
	gifQ := p.Quality(domain.Classification{ResolvedType: domain.MimeGIF})
	webpQ := p.Quality(domain.Classification{ResolvedType: domain.MimeWebP})
	heic := p.Quality(domain.Classification{ResolvedType: domain.MimeHEIC})

	require.Equal(t, 82, photo)
	require.Equal(t, 95, alphaPNG)
	require.Equal(t, 82, plainPNG)
	require.Equal(t, 95, gifQ)
	require.Equal(t, 82, webpQ)
	require.Equal(t, 82, heic)

	// Monotonic quality policy: alpha and GIF sources never encode
	// below the photo tier.
	require.GreaterOrEqual(t, alphaPNG, photo)
	require.GreaterOrEqual(t, gifQ, photo)
}

func TestPolicyClampsQuality(t *testing.T) {
	p := NewPolicy(-10, 250)

	require.Equal(t, 0, p.Quality(domain.Classification{ResolvedType: domain.MimeJPEG}))
	require.Equal(t, 100, p.Quality(domain.Classification{ResolvedType: domain.MimeGIF}))
}

func TestPolicyInPlace(t *testing.T) {
	p := NewPolicy(82, 95)

	require.True(t, p.InPlace("/up/2024/photo.webp"))
	require.True(t, p.InPlace("/up/2024/PHOTO.WEBP"))
	require.False(t, p.InPlace("/up/2024/photo.png"))
	require.False(t, p.InPlace("/up/2024/photo"))
}
