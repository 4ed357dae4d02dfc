package receipt

import (
	"bytes"

	"github.com/disintegration/imaging"
)

// thumbMaxDim bounds the admin-review thumbnail on its longest side.
const thumbMaxDim = 480

// Thumbnail renders a bounded JPEG preview of an image receipt for the
// admin review screen. Returns an error for formats imaging cannot decode
// (e.g. PDF); callers treat that as "no thumbnail", not a failure.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, thumbMaxDim, thumbMaxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
