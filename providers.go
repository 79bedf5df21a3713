package canopy

import (
	"net/url"
	"slices"
	"strings"
)

// Providers lists the external search providers in display order.
var Providers = []string{"google", "wikipedia", "gbif", "ncbi", "col", "inat"}

var providerBase = map[string]string{
	"google":    "https://www.google.com/search?q=",
	"wikipedia": "https://en.wikipedia.org/wiki/Special:Search?search=",
	"gbif":      "https://www.gbif.org/species/search?q=",
	"ncbi":      "https://www.ncbi.nlm.nih.gov/taxonomy/?term=",
	"col":       "https://www.catalogueoflife.org/data/search?q=",
	"inat":      "https://www.inaturalist.org/search?q=",
}

// ProviderURL returns the search URL for name at provider. Spaces are sent
// as %20. Unknown providers fall back to google.
func ProviderURL(provider, name string) string {
	base, ok := providerBase[provider]
	if !ok {
		base = providerBase["google"]
	}
	return base + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// NextProvider returns the provider after p in Providers, wrapping around.
// A negative step moves backwards.
func NextProvider(p string, step int) string {
	i := slices.Index(Providers, p)
	if i < 0 {
		return Providers[0]
	}
	n := len(Providers)
	return Providers[((i+step)%n+n)%n]
}

// Opener opens a URL outside the application, usually in a browser.
type Opener interface {
	OpenURL(u string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(u string) error

// OpenURL calls f.
func (f OpenerFunc) OpenURL(u string) error { return f(u) }
