package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender is trusted. Entries are either full
// addresses ("cdc@vit.ac.in") or domains ("vit.ac.in"); a domain entry also
// covers its subdomains.
type Checker struct {
	addresses map[string]struct{}
	domains   []string
	logger    *zap.Logger
}

// NewChecker creates a new allow-list checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	c := &Checker{
		addresses: make(map[string]struct{}),
		logger:    logger,
	}
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		switch {
		case e == "":
			continue
		case strings.Contains(e, "@"):
			c.addresses[e] = struct{}{}
		default:
			c.domains = append(c.domains, strings.TrimPrefix(e, "@"))
		}
	}

	if c.Enabled() && logger != nil {
		logger.Info("Initialized trusted sender list",
			zap.Int("addresses", len(c.addresses)),
			zap.Strings("domains", c.domains))
	}
	return c
}

// Enabled reports whether any entry is configured. An empty list trusts everyone.
func (c *Checker) Enabled() bool {
	return len(c.addresses) > 0 || len(c.domains) > 0
}

// Allows reports whether the sender address is trusted
func (c *Checker) Allows(from string) bool {
	if !c.Enabled() {
		return true
	}
	return c.IsWhitelisted(from)
}

// IsWhitelisted reports whether the address matches an entry
func (c *Checker) IsWhitelisted(from string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	if _, ok := c.addresses[from]; ok {
		return true
	}

	at := strings.LastIndex(from, "@")
	if at < 0 || at == len(from)-1 {
		return false
	}
	domain := from[at+1:]

	for _, d := range c.domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			if c.logger != nil {
				c.logger.Debug("Sender domain is trusted",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return true
		}
	}
	return false
}
