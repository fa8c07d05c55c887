// Package registry holds the static list of feeds and the global feed policy.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rssdigest/domain"
)

//go:embed sources.yaml
var defaultSources []byte

// File is the on-disk registry format.
type File struct {
	MaxItemsPerFeed int             `yaml:"maxItemsPerFeed"`
	DataPath        string          `yaml:"dataPath"`
	Sources         []domain.Source `yaml:"sources"`
}

// Registry is immutable once built.
type Registry struct {
	sources  []domain.Source
	byURL    map[string]int
	maxItems int
	dataPath string
}

// Default returns the built-in registry.
func Default() (*Registry, error) {
	return Parse(defaultSources)
}

// Load reads a registry from a YAML file. An empty path yields the built-in registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	return New(f)
}

// New validates f and builds a Registry from it.
func New(f File) (*Registry, error) {
	if f.MaxItemsPerFeed <= 0 {
		return nil, errors.New("maxItemsPerFeed must be > 0")
	}
	if len(f.Sources) == 0 {
		return nil, errors.New("no sources configured")
	}
	r := &Registry{
		sources:  make([]domain.Source, 0, len(f.Sources)),
		byURL:    make(map[string]int, len(f.Sources)),
		maxItems: f.MaxItemsPerFeed,
		dataPath: f.DataPath,
	}
	for i, src := range f.Sources {
		src.Name = strings.TrimSpace(src.Name)
		src.URL = strings.TrimSpace(src.URL)
		src.Category = strings.TrimSpace(src.Category)
		if src.Name == "" {
			return nil, fmt.Errorf("source #%d: name is required", i+1)
		}
		if err := ValidateURL(src.URL); err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		if _, dup := r.byURL[src.URL]; dup {
			return nil, fmt.Errorf("source %q: duplicate url %s", src.Name, src.URL)
		}
		r.byURL[src.URL] = len(r.sources)
		r.sources = append(r.sources, src)
	}
	return r, nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(feedURL string) error {
	u, err := url.ParseRequestURI(feedURL)
	if err != nil {
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %s", feedURL)
	}
	return nil
}

// Sources returns the sources in registration order.
func (r *Registry) Sources() []domain.Source {
	out := make([]domain.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *Registry) FindByURL(u string) (domain.Source, bool) {
	i, ok := r.byURL[u]
	if !ok {
		return domain.Source{}, false
	}
	return r.sources[i], true
}

// DefaultSource is the first registered source.
func (r *Registry) DefaultSource() domain.Source {
	return r.sources[0]
}

// Category is one group of sources sharing a category name.
type Category struct {
	Name    string
	Sources []domain.Source
}

// ByCategory groups sources by category, in order of first appearance.
func (r *Registry) ByCategory() []Category {
	var out []Category
	index := make(map[string]int)
	for _, src := range r.sources {
		i, ok := index[src.Category]
		if !ok {
			i = len(out)
			index[src.Category] = i
			out = append(out, Category{Name: src.Category})
		}
		out[i].Sources = append(out[i].Sources, src)
	}
	return out
}

func (r *Registry) MaxItemsPerFeed() int { return r.maxItems }

func (r *Registry) DataPath() string { return r.dataPath }

// WithOverrides returns a copy with non-zero values replacing the file's policy.
func (r *Registry) WithOverrides(maxItems int, dataPath string) (*Registry, error) {
	if maxItems < 0 {
		return nil, errors.New("maxItemsPerFeed override must be >= 0")
	}
	cp := *r
	if maxItems > 0 {
		cp.maxItems = maxItems
	}
	if dataPath != "" {
		cp.dataPath = dataPath
	}
	return &cp, nil
}
