package bedrock

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/tomatyss/mailos/llm"
)

// Bedrock's documented limits for Anthropic model image inputs.
const (
	maxImageBytes     = 10 * 1024 * 1024
	maxImageDimension = 4096
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// imageBlock validates one image against Bedrock's constraints, downscaling
// oversized images while preserving aspect ratio, and returns a base64
// image block. Unsupported formats and images too large to ship are
// rejected before any network call.
func (c *Client) imageBlock(content llm.Content) (anthropic.ContentBlockParamUnion, error) {
	mime := content.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	if !supportedImageTypes[mime] {
		return anthropic.ContentBlockParamUnion{}, llm.NewInvalidRequestError(
			fmt.Sprintf("unsupported image format %q, must be one of jpeg, png, gif, webp", mime), nil)
	}

	data := content.Data
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return anthropic.ContentBlockParamUnion{}, llm.NewInvalidRequestError("failed to decode image: "+err.Error(), nil)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxImageDimension || height > maxImageDimension {
		resized, resizedMime, err := downscale(img, mime)
		if err != nil {
			return anthropic.ContentBlockParamUnion{}, err
		}
		c.logger.Debug().
			Int("width", width).
			Int("height", height).
			Int("bytes", len(resized)).
			Msg("Downscaled oversized image")
		data = resized
		mime = resizedMime
	}

	if len(data) > maxImageBytes {
		return anthropic.ContentBlockParamUnion{}, llm.NewRequestTooLargeError(
			fmt.Sprintf("image is %d bytes, exceeding the %d byte limit", len(data), maxImageBytes), nil)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return anthropic.NewImageBlockBase64(mime, encoded), nil
}

// downscale resizes img so its longest side is maxImageDimension, keeping
// the aspect ratio. GIF and WebP sources are re-encoded as PNG since the
// standard encoders do not cover them.
func downscale(img image.Image, mime string) ([]byte, string, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	scale := float64(maxImageDimension) / float64(width)
	if height > width {
		scale = float64(maxImageDimension) / float64(height)
	}
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	// Extreme aspect ratios can round the short side down to zero.
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch mime {
	case "image/jpeg":
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
			return nil, "", llm.NewInvalidRequestError("failed to re-encode image: "+err.Error(), nil)
		}
	default:
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", llm.NewInvalidRequestError("failed to re-encode image: "+err.Error(), nil)
		}
		mime = "image/png"
	}

	return buf.Bytes(), mime, nil
}
