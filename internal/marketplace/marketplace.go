// Package marketplace maps product URLs to the Indian e-commerce sites we can price.
package marketplace

import (
	"net/url"
	"regexp"
	"strings"
)

// ID identifies a supported marketplace.
type ID string

const (
	Amazon   ID = "amazon"
	Flipkart ID = "flipkart"
	Myntra   ID = "myntra"
	Ajio     ID = "ajio"
	Nykaa    ID = "nykaa"
	Unknown  ID = "unknown"
)

type hostRule struct {
	fragments []string
	id        ID
}

var hostRules = []hostRule{
	{fragments: []string{"amazon.in", "amazon.co.in"}, id: Amazon},
	{fragments: []string{"flipkart.com"}, id: Flipkart},
	{fragments: []string{"myntra.com"}, id: Myntra},
	{fragments: []string{"ajio.com"}, id: Ajio},
	{fragments: []string{"nykaa.com"}, id: Nykaa},
}

var displayNames = map[ID]string{
	Amazon:   "Amazon India",
	Flipkart: "Flipkart",
	Myntra:   "Myntra",
	Ajio:     "AJIO",
	Nykaa:    "Nykaa",
}

var (
	amazonDPPattern        = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	amazonGPPattern        = regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`)
	flipkartProductPattern = regexp.MustCompile(`/p/([a-zA-Z0-9]{16})`)
	myntraIDPattern        = regexp.MustCompile(`/([0-9]+)/?$`)
)

// Classify returns the marketplace a URL belongs to. Malformed input yields Unknown.
func Classify(raw string) ID {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Unknown
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Unknown
	}

	for _, rule := range hostRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(host, fragment) {
				return rule.id
			}
		}
	}

	return Unknown
}

// ProductID extracts the marketplace specific product identifier from a URL.
// An empty string means no identifier could be found.
func ProductID(raw string, id ID) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	switch id {
	case Amazon:
		if m := amazonDPPattern.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
		if m := amazonGPPattern.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	case Flipkart:
		if m := flipkartProductPattern.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
		if pid := u.Query().Get("pid"); pid != "" {
			return pid
		}
	case Myntra:
		if m := myntraIDPattern.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	}

	return ""
}

// DisplayName returns the human readable marketplace name.
func (id ID) DisplayName() string {
	if name, ok := displayNames[id]; ok {
		return name
	}
	return "Unknown"
}

// Known reports whether id is one of the supported marketplaces.
func (id ID) Known() bool {
	_, ok := displayNames[id]
	return ok
}

// Supported lists the display names of all supported marketplaces in a stable order.
func Supported() []string {
	names := make([]string, 0, len(hostRules))
	for _, rule := range hostRules {
		names = append(names, rule.id.DisplayName())
	}
	return names
}

// UnsupportedMessage is shown when a URL does not belong to a supported marketplace.
func UnsupportedMessage() string {
	names := Supported()
	list := strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	return "Unsupported website. We currently support " + list + "."
}
