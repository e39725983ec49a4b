// Package catalog holds the fixed configuration tables of the service:
// organization branding, domain codes, header aliases and the activity and
// duration presets offered to clients.
//
// A Catalog is built once at start-up and never mutated; accessors hand out
// copies so callers cannot change shared state.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// OrgKey names one of the closed set of organization variants.
type OrgKey string

const (
	OrgDLithe   OrgKey = "DLithe"
	OrgNxtAlign OrgKey = "nxtAlign"
)

var knownOrgs = []OrgKey{OrgDLithe, OrgNxtAlign}

var (
	// ErrUnresolvedDomain is returned when a domain name has no code.
	ErrUnresolvedDomain = errors.New("unresolved domain")
	// ErrUnknownOrganization is returned for keys outside the closed set.
	ErrUnknownOrganization = errors.New("unknown organization")
)

// Assets are image paths used when rendering an organization's documents.
type Assets struct {
	Logo      string `yaml:"logo"`
	Seal      string `yaml:"seal"`
	Signature string `yaml:"signature"`
}

// Organization is the branding and legal identity printed on a certificate.
type Organization struct {
	Key          OrgKey   `yaml:"key"`
	LegalName    string   `yaml:"legal_name"`
	LegalID      string   `yaml:"legal_id"`
	Footer       []string `yaml:"footer"`
	ForSignature string   `yaml:"for_signature"`
	Assets       Assets   `yaml:"assets"`
}

// WithAssetDir resolves relative asset paths against dir.
func (o Organization) WithAssetDir(dir string) Organization {
	o.Footer = append([]string(nil), o.Footer...)
	if dir == "" {
		return o
	}
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	o.Assets = Assets{
		Logo:      resolve(o.Assets.Logo),
		Seal:      resolve(o.Assets.Seal),
		Signature: resolve(o.Assets.Signature),
	}
	return o
}

// Domain maps a human readable skill track to its short code.
type Domain struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// AliasRule lists the accepted header spellings for one canonical field,
// in priority order.
type AliasRule struct {
	Field   string   `yaml:"field"`
	Headers []string `yaml:"headers"`
}

type document struct {
	Organizations []Organization `yaml:"organizations"`
	Domains       []Domain       `yaml:"domains"`
	Aliases       []AliasRule    `yaml:"aliases"`
	ActivityTypes []string       `yaml:"activity_types"`
	Durations     []string       `yaml:"durations"`
}

// Catalog is the immutable set of configuration tables.
type Catalog struct {
	orgs       map[OrgKey]Organization
	domains    []Domain
	codes      map[string]string
	aliases    []AliasRule
	activities []string
	durations  []string
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog override file, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		orgs:       make(map[OrgKey]Organization, len(doc.Organizations)),
		codes:      make(map[string]string, len(doc.Domains)),
		activities: doc.ActivityTypes,
		durations:  doc.Durations,
	}
	for _, org := range doc.Organizations {
		if !isKnownOrg(org.Key) {
			return nil, fmt.Errorf("organization %q: %w", org.Key, ErrUnknownOrganization)
		}
		if len(org.Footer) != 3 {
			return nil, fmt.Errorf("organization %q: expected 3 footer lines, got %d", org.Key, len(org.Footer))
		}
		if org.LegalName == "" {
			return nil, fmt.Errorf("organization %q: legal_name is required", org.Key)
		}
		c.orgs[org.Key] = org
	}
	for _, key := range knownOrgs {
		if _, ok := c.orgs[key]; !ok {
			return nil, fmt.Errorf("organization %q missing from catalog", key)
		}
	}
	for _, d := range doc.Domains {
		if d.Name == "" || d.Code == "" {
			return nil, fmt.Errorf("domain entries need name and code")
		}
		if d.Code != strings.ToUpper(d.Code) {
			return nil, fmt.Errorf("domain %q: code %q must be uppercase", d.Name, d.Code)
		}
		if _, dup := c.codes[d.Name]; dup {
			return nil, fmt.Errorf("domain %q declared twice", d.Name)
		}
		c.codes[d.Name] = d.Code
		c.domains = append(c.domains, d)
	}
	for _, rule := range doc.Aliases {
		if rule.Field == "" || len(rule.Headers) == 0 {
			return nil, fmt.Errorf("alias rules need a field and at least one header")
		}
		c.aliases = append(c.aliases, rule)
	}
	return c, nil
}

func isKnownOrg(key OrgKey) bool {
	for _, k := range knownOrgs {
		if k == key {
			return true
		}
	}
	return false
}

// Organization looks up a variant by key, ignoring case.
func (c *Catalog) Organization(key string) (Organization, error) {
	for k, org := range c.orgs {
		if strings.EqualFold(string(k), strings.TrimSpace(key)) {
			return org.WithAssetDir(""), nil
		}
	}
	return Organization{}, fmt.Errorf("%w: %q", ErrUnknownOrganization, key)
}

// Organizations returns every variant in declaration order of the closed set.
func (c *Catalog) Organizations() []Organization {
	out := make([]Organization, 0, len(knownOrgs))
	for _, k := range knownOrgs {
		out = append(out, c.orgs[k].WithAssetDir(""))
	}
	return out
}

// DomainCode resolves a domain name to its code. The lookup is exact.
func (c *Catalog) DomainCode(name string) (string, error) {
	code, ok := c.codes[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnresolvedDomain, name)
	}
	return code, nil
}

// Domains returns the domain table in declaration order.
func (c *Catalog) Domains() []Domain {
	return append([]Domain(nil), c.domains...)
}

// Aliases returns a deep copy of the header alias table.
func (c *Catalog) Aliases() []AliasRule {
	out := make([]AliasRule, len(c.aliases))
	for i, rule := range c.aliases {
		out[i] = AliasRule{Field: rule.Field, Headers: append([]string(nil), rule.Headers...)}
	}
	return out
}

// ActivityTypes returns the preset activity labels.
func (c *Catalog) ActivityTypes() []string {
	return append([]string(nil), c.activities...)
}

// Durations returns the preset duration labels.
func (c *Catalog) Durations() []string {
	return append([]string(nil), c.durations...)
}
