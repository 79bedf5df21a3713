package remote

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/phanxgames/canopy"
)

// ChildLoader resolves lazy child endpoints. Absolute http(s) URLs are
// fetched; file:// URLs and relative references are resolved against the
// data source, which may itself be a URL or a file path.
type ChildLoader struct {
	client *Client
	base   string
}

// NewChildLoader creates a loader resolving relative endpoints against base.
func NewChildLoader(client *Client, base string) *ChildLoader {
	return &ChildLoader{client: client, base: base}
}

// LoadChildren implements canopy.ChildLoader.
func (l *ChildLoader) LoadChildren(ctx context.Context, ref string) ([]*canopy.Node, error) {
	target, isURL, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}
	var data []byte
	if isURL {
		data, err = l.client.Get(ctx, target)
	} else {
		data, err = os.ReadFile(target)
		if err != nil {
			err = canopy.Wrap(canopy.ErrCodeNotFound, err, "read %s", target)
		}
	}
	if err != nil {
		return nil, err
	}
	return canopy.ParseChildPayload(data)
}

// resolve turns ref into a fetchable URL or a local path.
func (l *ChildLoader) resolve(ref string) (target string, isURL bool, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false, canopy.NewError(canopy.ErrCodeInvalidInput, "empty children URL")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false, canopy.Wrap(canopy.ErrCodeInvalidInput, err, "bad children URL %q", ref)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true, nil
	case "file":
		return filepath.FromSlash(u.Path), false, nil
	case "":
	default:
		return "", false, canopy.NewError(canopy.ErrCodeInvalidInput, "unsupported children URL scheme %q", u.Scheme)
	}

	if IsURL(l.base) {
		base, err := url.Parse(l.base)
		if err != nil {
			return "", false, canopy.Wrap(canopy.ErrCodeInvalidInput, err, "bad source URL %q", l.base)
		}
		return base.ResolveReference(u).String(), true, nil
	}
	if filepath.IsAbs(ref) {
		return ref, false, nil
	}
	dir := "."
	if l.base != "" && l.base != "-" {
		dir = filepath.Dir(l.base)
	}
	return filepath.Join(dir, filepath.FromSlash(ref)), false, nil
}

// IsURL reports whether s is an http(s) URL.
func IsURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
