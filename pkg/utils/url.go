package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// ToAbsoluteURL resolves a possibly relative reference against base.
func ToAbsoluteURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	relURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(relURL).String(), nil
}

// WithQueryParam returns rawURL with key set to value, keeping every other parameter.
func WithQueryParam(rawURL, key string, value int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, strconv.Itoa(value))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
