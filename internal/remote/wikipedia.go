package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/phanxgames/canopy"
)

// DefaultThumbnailSize bounds the longer side of fetched previews.
const DefaultThumbnailSize = 256

// Wikipedia finds preview images through the Wikipedia REST summary API.
type Wikipedia struct {
	client   *Client
	endpoint string
	maxSize  int
}

// NewWikipedia creates a thumbnail source for endpoint, e.g.
// "https://en.wikipedia.org". maxSize <= 0 uses DefaultThumbnailSize.
func NewWikipedia(client *Client, endpoint string, maxSize int) *Wikipedia {
	if maxSize <= 0 {
		maxSize = DefaultThumbnailSize
	}
	return &Wikipedia{client: client, endpoint: strings.TrimRight(endpoint, "/"), maxSize: maxSize}
}

type pageSummary struct {
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

// summaryURL builds the summary endpoint for a page title. Spaces become
// underscores, as in Wikipedia page names.
func (w *Wikipedia) summaryURL(name string) string {
	title := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return w.endpoint + "/api/rest_v1/page/summary/" + url.PathEscape(title)
}

// ThumbnailURL implements canopy.ThumbnailSource. A missing page is not an
// error; it has no image.
func (w *Wikipedia) ThumbnailURL(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	data, err := w.client.Get(ctx, w.summaryURL(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	var sum pageSummary
	if err := json.Unmarshal(data, &sum); err != nil {
		return "", canopy.Wrap(canopy.ErrCodeMalformedPayload, err, "bad summary for %q", name)
	}
	switch {
	case sum.Thumbnail != nil && sum.Thumbnail.Source != "":
		return sum.Thumbnail.Source, nil
	case sum.OriginalImage != nil && sum.OriginalImage.Source != "":
		return sum.OriginalImage.Source, nil
	default:
		return "", nil
	}
}

// FetchImage implements canopy.ThumbnailSource. PNG, JPEG and WebP are
// decoded; larger images are scaled down to fit maxSize.
func (w *Wikipedia) FetchImage(ctx context.Context, u string) (image.Image, error) {
	data, err := w.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, canopy.Wrap(canopy.ErrCodeMalformedPayload, err, "decode image %s", u)
	}
	return Fit(img, w.maxSize), nil
}

// Fit scales img down so neither side exceeds size, keeping its aspect
// ratio. Smaller images are returned unchanged.
func Fit(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if size <= 0 || (w <= size && h <= size) {
		return img
	}
	if w >= h {
		h = max(1, h*size/w)
		w = size
	} else {
		w = max(1, w*size/h)
		h = size
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
