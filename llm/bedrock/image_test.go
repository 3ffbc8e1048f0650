package bedrock

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/llm"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func testBedrockClient() *Client {
	return &Client{logger: zerolog.Nop()}
}

func TestImageBlockAcceptsSmallImage(t *testing.T) {
	client := testBedrockClient()

	_, err := client.imageBlock(llm.NewImageContent(pngBytes(t, 32, 32), "image/png"))
	if err != nil {
		t.Fatalf("Expected small PNG to be accepted, got %v", err)
	}
}

func TestImageBlockRejectsUnsupportedFormat(t *testing.T) {
	client := testBedrockClient()

	_, err := client.imageBlock(llm.NewImageContent([]byte{0x42, 0x4d}, "image/bmp"))
	if err == nil {
		t.Fatal("Expected unsupported format to be rejected")
	}
	var llmErr *llm.Error
	if !errors.As(err, &llmErr) || llmErr.Type != llm.ErrorTypeInvalidRequest {
		t.Errorf("Expected invalid request error, got %v", err)
	}
}

func TestImageBlockRejectsGarbage(t *testing.T) {
	client := testBedrockClient()

	_, err := client.imageBlock(llm.NewImageContent([]byte("not an image"), "image/png"))
	if err == nil {
		t.Fatal("Expected undecodable data to be rejected")
	}
}

func TestImageBlockDownscalesOversizedImage(t *testing.T) {
	client := testBedrockClient()

	// Wider than the dimension limit; must be downscaled, not rejected.
	_, err := client.imageBlock(llm.NewImageContent(pngBytes(t, maxImageDimension+400, 64), "image/png"))
	if err != nil {
		t.Fatalf("Expected oversized image to be downscaled, got %v", err)
	}
}

func TestDownscalePreservesAspectRatio(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, maxImageDimension*2, maxImageDimension))

	data, mime, err := downscale(src, "image/png")
	if err != nil {
		t.Fatalf("downscale failed: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("Expected PNG output, got %q", mime)
	}

	resized, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode resized image: %v", err)
	}
	bounds := resized.Bounds()
	if bounds.Dx() != maxImageDimension {
		t.Errorf("Expected width %d, got %d", maxImageDimension, bounds.Dx())
	}
	if bounds.Dy() != maxImageDimension/2 {
		t.Errorf("Expected height %d, got %d", maxImageDimension/2, bounds.Dy())
	}
}

func TestDownscaleClampsExtremeAspectRatio(t *testing.T) {
	// The short side would round down to zero pixels; it must be clamped.
	src := image.NewRGBA(image.Rect(0, 0, maxImageDimension*5, 2))

	data, _, err := downscale(src, "image/png")
	if err != nil {
		t.Fatalf("downscale failed: %v", err)
	}

	resized, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode resized image: %v", err)
	}
	bounds := resized.Bounds()
	if bounds.Dx() != maxImageDimension {
		t.Errorf("Expected width %d, got %d", maxImageDimension, bounds.Dx())
	}
	if bounds.Dy() != 1 {
		t.Errorf("Expected height clamped to 1, got %d", bounds.Dy())
	}
}

func TestDownscaleReencodesExoticFormatsAsPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))

	for _, mime := range []string{"image/gif", "image/webp"} {
		_, outMime, err := downscale(src, mime)
		if err != nil {
			t.Fatalf("downscale failed for %s: %v", mime, err)
		}
		if outMime != "image/png" {
			t.Errorf("Expected %s to be re-encoded as PNG, got %q", mime, outMime)
		}
	}
}
