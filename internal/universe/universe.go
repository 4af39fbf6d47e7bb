// Package universe resolves named ticker universes (index constituents, CSV lists, static lists).
package universe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/httputil"
	"github.com/wonny/canslim/pkg/logger"
)

// Kind selects how a universe is loaded
type Kind string

const (
	KindStatic    Kind = "static"
	KindWikipedia Kind = "wikipedia"
	KindCSV       Kind = "csv"
)

// DefaultLimit caps the tickers taken from a large universe
const DefaultLimit = 50

var (
	ErrUnknownUniverse = errors.New("unknown universe")
	ErrEmptyUniverse   = errors.New("universe resolved to no tickers")
)

// Definition describes one named universe
type Definition struct {
	Name    string   `yaml:"name" json:"name"`
	Kind    Kind     `yaml:"kind" json:"kind"`
	URL     string   `yaml:"url,omitempty" json:"url,omitempty"`
	Table   string   `yaml:"table,omitempty" json:"table,omitempty"`   // CSS selector, wikipedia only
	Column  string   `yaml:"column,omitempty" json:"column,omitempty"` // header holding the symbol
	Tickers []string `yaml:"tickers,omitempty" json:"tickers,omitempty"`
	Limit   int      `yaml:"limit,omitempty" json:"limit,omitempty"`
}

// Validate checks the fields required by Kind
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("universe name is required")
	}
	switch d.Kind {
	case KindStatic:
		if len(d.Tickers) == 0 {
			return fmt.Errorf("universe %s: static universe needs tickers", d.Name)
		}
	case KindWikipedia, KindCSV:
		if d.URL == "" {
			return fmt.Errorf("universe %s: %s universe needs url", d.Name, d.Kind)
		}
	default:
		return fmt.Errorf("universe %s: unknown kind %q", d.Name, d.Kind)
	}
	if d.Limit < 0 {
		return fmt.Errorf("universe %s: limit must be >= 0", d.Name)
	}
	return nil
}

// Builtins returns the index universes
// ⭐ SSOT: 기본 유니버스 정의
func Builtins() []Definition {
	return []Definition{
		{
			Name:   "sp500",
			Kind:   KindWikipedia,
			URL:    "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies",
			Table:  "table#constituents",
			Column: "Symbol",
		},
		{
			Name:   "nasdaq100",
			Kind:   KindWikipedia,
			URL:    "https://en.wikipedia.org/wiki/Nasdaq-100",
			Table:  "table#constituents",
			Column: "Ticker",
		},
		{
			Name:   "dow",
			Kind:   KindWikipedia,
			URL:    "https://en.wikipedia.org/wiki/Dow_Jones_Industrial_Average",
			Table:  "table#constituents",
			Column: "Symbol",
		},
		{
			Name:   "sp500-csv",
			Kind:   KindCSV,
			URL:    "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/main/data/constituents.csv",
			Column: "Symbol",
		},
	}
}

// Resolver maps universe names to sources
type Resolver struct {
	defs   map[string]Definition
	http   *httputil.Client
	limit  int
	logger *logger.Logger
}

// NewResolver creates a resolver over the built-ins plus extra definitions; extras win on name clash
func NewResolver(httpClient *httputil.Client, log *logger.Logger, limit int, extra ...Definition) (*Resolver, error) {
	if log == nil {
		log = logger.Nop()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	r := &Resolver{
		defs:   make(map[string]Definition),
		http:   httpClient,
		limit:  limit,
		logger: log.WithComponent("universe"),
	}
	for _, d := range append(Builtins(), extra...) {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		r.defs[strings.ToLower(d.Name)] = d
	}
	return r, nil
}

// Names lists the known universes
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Definition returns the named definition
func (r *Resolver) Definition(name string) (Definition, error) {
	d, ok := r.defs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownUniverse, name)
	}
	return d, nil
}

// Source builds the loader for a named universe
func (r *Resolver) Source(name string) (contracts.UniverseSource, error) {
	d, err := r.Definition(name)
	if err != nil {
		return nil, err
	}
	switch d.Kind {
	case KindWikipedia:
		return &WikipediaSource{http: r.http, url: d.URL, table: d.Table, column: d.Column}, nil
	case KindCSV:
		return &CSVSource{http: r.http, url: d.URL, column: d.Column}, nil
	default:
		return Static(d.Tickers), nil
	}
}

// Resolve loads the named universe, drops symbols the screener cannot take, and applies the limit
func (r *Resolver) Resolve(ctx context.Context, name string) ([]string, error) {
	d, err := r.Definition(name)
	if err != nil {
		return nil, err
	}
	src, err := r.Source(name)
	if err != nil {
		return nil, err
	}

	raw, err := src.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe %s: %w", d.Name, err)
	}

	limit := r.limit
	if d.Limit > 0 {
		limit = d.Limit
	}
	tickers, skipped := clean(raw, limit)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyUniverse, d.Name)
	}

	r.logger.WithFields(map[string]interface{}{
		"universe": d.Name,
		"loaded":   len(raw),
		"skipped":  skipped,
		"selected": len(tickers),
	}).Info("Universe resolved")
	return tickers, nil
}

// Static is a fixed ticker list
type Static []string

func (s Static) Tickers(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
