package sessionware

import (
	"strings"

	"github.com/goliatone/go-router"
)

// Extractor pulls a raw token from the request, returning "" when absent
type Extractor func(c router.Context) string

// GetExtractors parses a lookup string such as
// "cookie:auth,header:Authorization,query:token"
func GetExtractors(tokenLookup string, authScheme string) []Extractor {
	extractors := make([]Extractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		source, name, ok := strings.Cut(strings.TrimSpace(rootPart), ":")
		if !ok {
			continue
		}
		source = strings.TrimSpace(source)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		switch source {
		case "header":
			extractors = append(extractors, fromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		}
	}

	return extractors
}

// ExtractToken returns the first non empty token
func ExtractToken(c router.Context, extractors []Extractor) string {
	for _, extractor := range extractors {
		if raw := extractor(c); raw != "" {
			return raw
		}
	}
	return ""
}

// fromHeader extracts "<scheme> <token>" from header
func fromHeader(header, authScheme string) Extractor {
	authScheme = strings.TrimSpace(authScheme)
	l := len(authScheme)
	return func(c router.Context) string {
		a := c.Header(header)
		if l == 0 {
			return strings.TrimSpace(a)
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			return strings.TrimSpace(a[l+1:])
		}
		return ""
	}
}

func fromQuery(param string) Extractor {
	return func(c router.Context) string {
		return c.Query(param, "")
	}
}

func fromCookie(name string) Extractor {
	return func(c router.Context) string {
		return c.Cookies(name)
	}
}
