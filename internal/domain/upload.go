package domain

// Upload describes a single uploaded file as the host pipeline sees it.
// The converter mutates it at most once: on a successful conversion the
// path, MIME type and URL all move to the new WebP file together.
type Upload struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// MIME types this system knows about.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeGIF  = "image/gif"
	MimeHEIC = "image/heic"
	MimeHEIF = "image/heif"
	MimeWebP = "image/webp"
)

// ConvertibleTypes is the set of resolved MIME types eligible for
// WebP conversion.
var ConvertibleTypes = map[string]bool{
	MimeJPEG: true,
	MimePNG:  true,
	MimeGIF:  true,
	MimeHEIC: true,
	MimeHEIF: true,
	MimeWebP: true,
}

// Classification is the classifier's verdict for one file.
type Classification struct {
	Eligible     bool
	ResolvedType string
	Animated     bool
	HasAlpha     bool
}
