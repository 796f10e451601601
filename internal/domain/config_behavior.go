package domain

import (
	"fmt"
	"regexp"
	"sort"
)

var prefixNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// EffectiveLimit resolves a requested limit against the configured default and cap.
func (c *Config) EffectiveLimit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = c.Query.DefaultLimit
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if c.Query.MaxResults > 0 && limit > c.Query.MaxResults {
		limit = c.Query.MaxResults
	}
	return limit
}

// NamespaceNames lists the configured prefixes in sorted order.
func (c *Config) NamespaceNames() []string {
	names := make([]string, 0, len(c.Namespaces))
	for name := range c.Namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetNamespace binds prefix to iri, replacing any existing binding.
func (c *Config) SetNamespace(prefix, iri string) error {
	if !prefixNamePattern.MatchString(prefix) {
		return fmt.Errorf("invalid prefix %q", prefix)
	}
	if iri == "" {
		return fmt.Errorf("namespace IRI for %s cannot be empty", prefix)
	}
	if c.Namespaces == nil {
		c.Namespaces = make(map[string]string)
	}
	c.Namespaces[prefix] = iri
	return nil
}

// RemoveNamespace drops a prefix binding.
func (c *Config) RemoveNamespace(prefix string) error {
	if _, ok := c.Namespaces[prefix]; !ok {
		return fmt.Errorf("namespace %s not found", prefix)
	}
	delete(c.Namespaces, prefix)
	return nil
}
