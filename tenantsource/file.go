// Package tenantsource provides auth.TenantSource implementations backed by
// a YAML file and by Redis.
package tenantsource

import (
	"bytes"
	"context"
	"fmt"
	"os"

	auth "github.com/goliatone/go-shop-auth"
	"gopkg.in/yaml.v3"
)

// File reads shops from a YAML document of the form
//
//	shops:
//	  - domain: shop.example.com
//	    name: Example
//	    product_type: tea
type File struct {
	Path string
}

var _ auth.TenantSource = (*File)(nil)

type fileDocument struct {
	Shops []auth.TenantConfig `yaml:"shops"`
}

// NewFile returns a source reading path on every fetch
func NewFile(path string) *File {
	return &File{Path: path}
}

// FetchAllTenants implements auth.TenantSource. The file is read on every
// call so edits are picked up by the next reload.
func (f *File) FetchAllTenants(ctx context.Context) ([]auth.TenantConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read shops file: %w", err)
	}

	return ParseYAML(raw)
}

// ParseYAML decodes a shops document, rejecting unknown fields and entries
// without a domain
func ParseYAML(raw []byte) ([]auth.TenantConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc fileDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode shops file: %w", err)
	}

	for i, s := range doc.Shops {
		if auth.NormalizeDomain(s.Domain) == "" {
			return nil, fmt.Errorf("decode shops file: entry %d has no domain", i)
		}
	}

	return doc.Shops, nil
}
