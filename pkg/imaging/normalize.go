// Package imaging converts arbitrary raster image bytes into the one canonical
// encoding the rest of the pipeline embeds into provider payloads: an RGB JPEG,
// quality 85, fitted into 1280x720, carried as base64 text.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

const (
	maxWidth    = 1280
	maxHeight   = 720
	jpegQuality = 85
)

// ErrDecode reports that the input bytes could not be decoded as an image.
// Callers treat it as "image omitted", never as a fatal failure.
var ErrDecode = errors.New("image decode failed")

// Image is a normalized image, base64-text-encoded for transport.
type Image string

// Bytes returns the decoded (still container-encoded) image bytes.
func (i Image) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(i))
}

// MediaType is the container every normalized image is re-encoded into.
const MediaType = "image/jpeg"

// Normalize decodes raw, flattens it onto a white background (palette and
// alpha-channel sources included), downscales it so neither dimension exceeds
// 1280x720 without ever upscaling, and re-encodes it as JPEG quality 85.
//
// With preserveOriginal set, color/resize normalization is skipped and the
// image is re-encoded in its original container instead.
//
// All decode/encode failures are logged and come back as ErrDecode; nothing
// panics past this boundary.
func Normalize(raw []byte, preserveOriginal bool) (Image, error) {
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		zap.L().Warn("image decode failed, omitting image", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var buf bytes.Buffer
	if preserveOriginal {
		err = encodeOriginal(&buf, src, format)
	} else {
		err = jpeg.Encode(&buf, fit(flatten(src)), &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		zap.L().Warn("image re-encode failed, omitting image",
			zap.String("format", format), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return Image(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// Info reports the container format and pixel dimensions without a full decode.
func Info(raw []byte) (format string, width, height int, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return format, cfg.Width, cfg.Height, nil
}

// flatten composites src over a white background, which both discards alpha
// and expands palette/gray/CMYK sources into plain RGB samples.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// fit downscales img, preserving aspect ratio, so that width <= 1280 and
// height <= 720. Images already inside the box are returned untouched.
func fit(img *image.RGBA) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

func encodeOriginal(buf *bytes.Buffer, src image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(buf, src, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		return gif.Encode(buf, src, nil)
	case "bmp":
		return bmp.Encode(buf, src)
	default:
		// png, plus any decode-only format with no stdlib encoder.
		return png.Encode(buf, src)
	}
}
