package entity

import (
	"errors"
	"strings"
)

// ErrUnknownProvider is returned when a provider name is not one of the supported sources.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider identifies one of the external job boards.
type Provider string

const (
	ProviderWuzzuf   Provider = "Wuzzuf"
	ProviderLinkedin Provider = "Linkedin"
	ProviderIndeed   Provider = "Indeed"
	ProviderTanqeeb  Provider = "Tanqeeb"
)

// ProviderInfo describes the static catalogue facts of a provider.
type ProviderInfo struct {
	BaseURL             string
	Country             string
	NativeRecencyFilter bool
}

var providerCatalogue = map[Provider]ProviderInfo{
	ProviderWuzzuf:   {BaseURL: "https://wuzzuf.net", Country: "EG", NativeRecencyFilter: true},
	ProviderLinkedin: {BaseURL: "https://www.linkedin.com", Country: "EG", NativeRecencyFilter: true},
	ProviderIndeed:   {BaseURL: "https://eg.indeed.com", Country: "EG"},
	ProviderTanqeeb:  {BaseURL: "https://egypt.tanqeeb.com", Country: "EG"},
}

// Providers returns every supported provider in scheduling order.
func Providers() []Provider {
	return []Provider{ProviderWuzzuf, ProviderLinkedin, ProviderIndeed, ProviderTanqeeb}
}

// ParseProvider resolves a provider name case-insensitively.
func ParseProvider(name string) (Provider, error) {
	name = strings.TrimSpace(name)
	for _, p := range Providers() {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
	}
	return "", ErrUnknownProvider
}

// Info returns the catalogue entry for the provider.
func (p Provider) Info() (ProviderInfo, bool) {
	info, ok := providerCatalogue[p]
	return info, ok
}

func (p Provider) Valid() bool {
	_, ok := providerCatalogue[p]
	return ok
}

func (p Provider) String() string {
	return string(p)
}
