package remote

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"

	"github.com/phanxgames/canopy"
)

// DefaultCandidates are tried in order when no data source is given.
var DefaultCandidates = []string{"tree.json", "taxonomy.json", "data.json"}

// Source is a loaded tree document.
type Source struct {
	Ref    string
	Data   []byte
	Format canopy.Format
}

// ReadSource loads ref: "-" reads stdin, http(s) URLs are fetched, anything
// else is read from disk. The format comes from the extension.
func ReadSource(ctx context.Context, client *Client, ref string, stdin io.Reader) (*Source, error) {
	switch {
	case ref == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, canopy.Wrap(canopy.ErrCodeInvalidInput, err, "read stdin")
		}
		return &Source{Ref: ref, Data: data, Format: canopy.FormatJSON}, nil
	case IsURL(ref):
		data, err := client.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		p := ref
		if u, err := url.Parse(ref); err == nil {
			p = path.Base(u.Path)
		}
		return &Source{Ref: ref, Data: data, Format: canopy.FormatForPath(p)}, nil
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, canopy.Wrap(canopy.ErrCodeNotFound, err, "read %s", ref)
		}
		return &Source{Ref: ref, Data: data, Format: canopy.FormatForPath(ref)}, nil
	}
}

// FindDefault returns the first readable candidate, or nil if none exist.
func FindDefault(ctx context.Context, client *Client, candidates []string) *Source {
	for _, c := range candidates {
		if src, err := ReadSource(ctx, client, c, nil); err == nil {
			return src
		}
	}
	return nil
}
