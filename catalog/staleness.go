package catalog

import (
	"fmt"
	"time"
)

// KeyClass distinguishes the two catalog partitions, which age at
// different rates: navigation changes rarely, product listings churn.
type KeyClass int

const (
	ClassNavigation KeyClass = iota
	ClassProducts
)

// Decision is the outcome of a staleness check.
type Decision struct {
	Refresh bool
	Reason  string
}

// StalenessPolicy decides whether cached data for a key is fresh enough
// to serve without a crawl. Pure: no store or network access.
type StalenessPolicy struct {
	// NavigationTTL is the maximum age of the navigation cache. Default: 24h.
	NavigationTTL time.Duration
	// ProductTTL is the maximum age of a product-listing cache. Default: 6h.
	ProductTTL time.Duration
	// Now is the clock, injectable for tests. Default: time.Now.
	Now func() time.Time
}

func (p *StalenessPolicy) defaults() {
	if p.NavigationTTL <= 0 {
		p.NavigationTTL = 24 * time.Hour
	}
	if p.ProductTTL <= 0 {
		p.ProductTTL = 6 * time.Hour
	}
	if p.Now == nil {
		p.Now = time.Now
	}
}

// Decide returns whether a refresh is required. lastRefreshedAt is the
// most recent cached record's timestamp in unix milliseconds, nil when no
// record exists for the key.
func (p *StalenessPolicy) Decide(class KeyClass, lastRefreshedAt *int64, force bool) Decision {
	p.defaults()

	if force {
		return Decision{Refresh: true, Reason: "explicit refresh requested"}
	}
	if lastRefreshedAt == nil {
		return Decision{Refresh: true, Reason: "no cached record"}
	}

	ttl := p.ProductTTL
	if class == ClassNavigation {
		ttl = p.NavigationTTL
	}

	age := p.Now().Sub(time.UnixMilli(*lastRefreshedAt))
	if age > ttl {
		return Decision{Refresh: true, Reason: fmt.Sprintf("cache age %s exceeds %s", age.Truncate(time.Second), ttl)}
	}
	return Decision{Refresh: false, Reason: fmt.Sprintf("cache age %s within %s", age.Truncate(time.Second), ttl)}
}
