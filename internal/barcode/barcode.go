// Package barcode decodes EAN-13 barcodes from uploaded images. Book
// barcodes are EAN-13 by construction, so no other symbologies are tried.
package barcode

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	_ "golang.org/x/image/webp"
)

// ErrNotFound indicates the image decoded fine but contained no readable
// EAN-13 barcode.
var ErrNotFound = errors.New("no barcode found in image")

// ErrBadImage indicates the payload is not a decodable image.
var ErrBadImage = errors.New("unreadable image data")

// DecodeImage reads an image (JPEG, PNG or WebP) and returns the digits of
// the first EAN-13 barcode found.
func DecodeImage(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := oned.NewEAN13Reader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return result.GetText(), nil
}
