// Package imageprep shrinks large uploads before they reach the blob store.
package imageprep

import (
	"bytes"
	"net/http"

	"github.com/disintegration/imaging"
)

const (
	// CompressThreshold is the size above which uploads are re-encoded.
	CompressThreshold = 1 << 20
	MaxWidth          = 1920
	MaxHeight         = 1080
	JPEGQuality       = 80
)

// Prepared is the payload to upload.
type Prepared struct {
	Data        []byte
	ContentType string
	Compressed  bool
}

// Prepare returns data unchanged when it is at most CompressThreshold bytes.
// Larger images are fitted inside MaxWidth x MaxHeight, never enlarged, and
// re-encoded as JPEG. Any decode or encode failure keeps the original bytes.
func Prepare(data []byte) Prepared {
	if len(data) <= CompressThreshold {
		return Prepared{Data: data, ContentType: http.DetectContentType(data)}
	}
	out, err := recompress(data)
	if err != nil {
		return Prepared{Data: data, ContentType: http.DetectContentType(data)}
	}
	return Prepared{Data: out, ContentType: "image/jpeg", Compressed: true}
}

func recompress(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() > MaxWidth || b.Dy() > MaxHeight {
		img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
