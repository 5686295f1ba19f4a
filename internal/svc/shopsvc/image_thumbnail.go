package shopsvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

var (
	// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrUnsupportedImageType is returned when trying to process an unsupported image format.
	ErrUnsupportedImageType = errors.New("unsupported image type")
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeTIFF = "image/tiff"
)

//nolint:gochecknoglobals
var (
	// interpolMap maps interpolator names to their implementations.
	// Supported values: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear".
	interpolMap = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}

	imageExtTypes = map[string]string{
		".jpg":  MIMETypeJPEG,
		".jpeg": MIMETypeJPEG,
		".png":  MIMETypePNG,
		".tiff": MIMETypeTIFF,
		".tif":  MIMETypeTIFF,
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypeTIFF: tiff.Decode,
		MIMETypePNG:  png.Decode,
	}

	imageEncoders = map[string]func(io.Writer, image.Image) error{
		MIMETypeJPEG: func(w io.Writer, i image.Image) error { return jpeg.Encode(w, i, nil) },
		MIMETypeTIFF: func(w io.Writer, i image.Image) error { return tiff.Encode(w, i, nil) },
		MIMETypePNG:  png.Encode,
	}
)

func imageTypeByExt(ext string) (string, error) {
	mimeType, ok := imageExtTypes[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImageType, ext)
	}

	return mimeType, nil
}

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownInterpolator
	}

	return interpol, nil
}

// resizeImage resizes an image to the specified width while maintaining aspect ratio.
// It supports JPEG, PNG and TIFF formats.
// The interpolator parameter specifies the scaling algorithm to use.
// Returns ErrUnknownInterpolator if the interpolator is not supported.
// Returns ErrUnsupportedImageType if the image format is not supported.
func resizeImage(data []byte, ctype string, width int, interpolator string) (resized []byte, err error) {
	// Decode image
	original, err := decodeImage(bytes.NewReader(data), ctype)
	if err != nil {
		return []byte{}, fmt.Errorf("decode image: %w", err)
	}

	// Resize image
	ratio := float64(width) / float64(original.Bounds().Dx())
	height := int(float64(original.Bounds().Dy()) * ratio)

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))

	interpol, err := getInterpolatorByName(interpolator)
	if err != nil {
		return []byte{}, fmt.Errorf("get interpolator: %w", err)
	}

	interpol.Scale(bitmap, bitmap.Bounds(), original, original.Bounds(), draw.Over, nil)

	// Encode image
	resized, err = encodeImage(bitmap, ctype)
	if err != nil {
		return []byte{}, fmt.Errorf("encode image: %w", err)
	}

	return resized, nil
}

func decodeImage(reader io.Reader, ctype string) (image.Image, error) {
	decoder, ok := imageDecoders[ctype]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImageType, ctype)
	}

	return decoder(reader)
}

func encodeImage(bitmap image.Image, ctype string) ([]byte, error) {
	var (
		buffer []byte
		writer = bytes.NewBuffer(buffer)
	)

	encoder, ok := imageEncoders[ctype]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImageType, ctype)
	}

	err := encoder(writer, bitmap)

	return writer.Bytes(), err
}
