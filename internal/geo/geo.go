// Package geo looks up where a target address lives using a MaxMind
// GeoLite2 database.
package geo

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// DefaultPaths are tried in order when no database path is given.
var DefaultPaths = []string{
	"/usr/share/GeoIP/GeoLite2-City.mmdb",
	"/usr/local/share/GeoIP/GeoLite2-City.mmdb",
	"/usr/share/GeoIP/GeoLite2-Country.mmdb",
	"/usr/local/share/GeoIP/GeoLite2-Country.mmdb",
}

// ErrNoDatabase is returned by Open when none of the candidate paths can
// be opened.
var ErrNoDatabase = errors.New("no GeoIP database found")

// Location is the geolocation of a single address. City is empty when
// the database only carries country data.
type Location struct {
	CountryCode string
	Country     string
	City        string
}

func (l Location) String() string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.Country != "":
		return l.Country
	case l.CountryCode != "":
		return l.CountryCode
	default:
		return "Unknown"
	}
}

// Locator wraps an open GeoLite2 reader.
type Locator struct {
	db      *geoip2.Reader
	hasCity bool
}

// Open opens the database at path, or the first of DefaultPaths that
// exists when path is empty.
func Open(path string) (*Locator, error) {
	paths := DefaultPaths
	if path != "" {
		paths = []string{path}
	}

	var lastErr error
	for _, p := range paths {
		db, err := geoip2.Open(p)
		if err != nil {
			lastErr = err
			continue
		}
		return &Locator{
			db:      db,
			hasCity: strings.Contains(db.Metadata().DatabaseType, "City"),
		}, nil
	}
	if path != "" {
		return nil, fmt.Errorf("failed to open GeoIP database %s: %w", path, lastErr)
	}
	return nil, ErrNoDatabase
}

// Lookup returns the location of ip. Private and loopback addresses are
// reported without touching the database.
func (l *Locator) Lookup(ip net.IP) (Location, error) {
	if ip == nil {
		return Location{}, errors.New("nil address")
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return Location{Country: "Local network"}, nil
	}

	if l.hasCity {
		rec, err := l.db.City(ip)
		if err != nil {
			return Location{}, fmt.Errorf("geoip lookup %s: %w", ip, err)
		}
		return Location{
			CountryCode: rec.Country.IsoCode,
			Country:     rec.Country.Names["en"],
			City:        rec.City.Names["en"],
		}, nil
	}

	rec, err := l.db.Country(ip)
	if err != nil {
		return Location{}, fmt.Errorf("geoip lookup %s: %w", ip, err)
	}
	return Location{
		CountryCode: rec.Country.IsoCode,
		Country:     rec.Country.Names["en"],
	}, nil
}

// Close releases the database.
func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
