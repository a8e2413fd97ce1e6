package cover

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultFolder        = "meetup"
	DefaultResizePercent = 50
	DefaultMaxBytes      = 10 << 20
	DefaultTimeout       = 20 * time.Second
	jpegQuality          = 85
)

type Options struct {
	Uploader      Uploader
	Folder        string
	ResizePercent int
	MaxBytes      int64
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Processor downloads a provider image, scales it down and hands it to an Uploader.
type Processor struct {
	uploader      Uploader
	folder        string
	resizePercent int
	maxBytes      int64
	client        *http.Client
}

func NewProcessor(opts Options) (*Processor, error) {
	if opts.Uploader == nil {
		return nil, fmt.Errorf("cover uploader is required")
	}

	folder := strings.TrimSpace(opts.Folder)
	if folder == "" {
		folder = DefaultFolder
	}
	percent := opts.ResizePercent
	if percent <= 0 || percent > 100 {
		percent = DefaultResizePercent
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Processor{
		uploader:      opts.Uploader,
		folder:        folder,
		resizePercent: percent,
		maxBytes:      maxBytes,
		client:        client,
	}, nil
}

// Process returns the hosted URL of the event's resized cover. The stored file
// name is derived from the event name and key, so re-processing one event
// overwrites its own cover only.
func (p *Processor) Process(ctx context.Context, imageURL string, eventName string, key string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("cover processor is not initialized")
	}

	source := strings.TrimSpace(imageURL)
	parsed, err := url.Parse(source)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("invalid image url %q", imageURL)
	}

	raw, err := p.download(ctx, source)
	if err != nil {
		return "", err
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	encoded, ext, err := encode(Resize(img, p.resizePercent), format)
	if err != nil {
		return "", err
	}

	fileName := FormatImageName(path.Base(parsed.Path), CoverSlug(eventName, key), ext)
	hostedURL, err := p.uploader.Upload(ctx, encoded, fileName, p.folder)
	if err != nil {
		return "", fmt.Errorf("upload cover: %w", err)
	}
	return hostedURL, nil
}

func (p *Processor) download(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download image status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(body)) > p.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", p.maxBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("image body is empty")
	}
	return body, nil
}

// Resize scales img to percent of its original dimensions, never below 1x1.
func Resize(img image.Image, percent int) image.Image {
	if percent <= 0 || percent >= 100 {
		return img
	}

	bounds := img.Bounds()
	width := bounds.Dx() * percent / 100
	height := bounds.Dy() * percent / 100
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "jpg", nil
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "png", nil
	}
}
