// Package catalog holds the table of credential types this service can issue,
// keyed by the route suffix under /api/issue/.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"medcred/internal/issuance/models"
)

var validSuffix = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// defaults is the demo's built-in credential table.
var defaults = []struct {
	suffix string
	typ    models.CredentialType
}{
	{"johns-hopkins", models.MedicalDoctorCredential},
	{"florida-license", models.FloridaMedicalLicenseCredential},
	{"unitedhealth", models.UnitedHealthEmployeeCredential},
	{"ama", models.AMACredential},
	{"cms", models.CMSProviderCredential},
	{"adventhealth", models.SurgicalPrivilegesCredential},
}

// Catalog is immutable after construction.
type Catalog struct {
	bySuffix map[string]models.Descriptor
	order    []string
}

// New builds a catalog from explicit descriptors.
func New(descriptors ...models.Descriptor) (*Catalog, error) {
	c := &Catalog{bySuffix: make(map[string]models.Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if !validSuffix.MatchString(d.Suffix) {
			return nil, fmt.Errorf("invalid route suffix %q", d.Suffix)
		}
		if d.Type == "" || d.Manifest == "" {
			return nil, fmt.Errorf("descriptor %q: type and manifest are required", d.Suffix)
		}
		if _, dup := c.bySuffix[d.Suffix]; dup {
			return nil, fmt.Errorf("duplicate route suffix %q", d.Suffix)
		}
		c.bySuffix[d.Suffix] = d
		c.order = append(c.order, d.Suffix)
	}
	return c, nil
}

// Default returns the built-in table with manifests served from
// manifestBaseURL.
func Default(manifestBaseURL string) *Catalog {
	descriptors := make([]models.Descriptor, 0, len(defaults))
	for _, d := range defaults {
		descriptors = append(descriptors, models.Descriptor{
			Suffix:   d.suffix,
			Type:     d.typ,
			Manifest: ManifestURL(manifestBaseURL, d.suffix),
		})
	}
	c, err := New(descriptors...)
	if err != nil {
		panic(err) // static table
	}
	return c
}

// ManifestURL is where the manifest for suffix is published.
func ManifestURL(baseURL, suffix string) string {
	return strings.TrimRight(baseURL, "/") + "/manifests/" + suffix + "/manifest.json"
}

// Lookup returns the descriptor bound to suffix.
func (c *Catalog) Lookup(suffix string) (models.Descriptor, bool) {
	d, ok := c.bySuffix[suffix]
	return d, ok
}

// All returns descriptors in registration order.
func (c *Catalog) All() []models.Descriptor {
	out := make([]models.Descriptor, 0, len(c.order))
	for _, s := range c.order {
		out = append(out, c.bySuffix[s])
	}
	return out
}
