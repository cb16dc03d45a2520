// Package match decides how strongly a message refers to the tracked profile.
package match

import (
	"strings"

	"github.com/mikey/shortlist-watcher/internal/core"
)

// DefaultNameOverlapThreshold is the share of profile name words a table
// cell must contain to count as a flexible name match
const DefaultNameOverlapThreshold = 0.8

// Classifier maps extracted signals onto a verdict
type Classifier struct {
	emailSignals  bool
	nameThreshold float64
}

// NewClassifier creates a classifier. Email addresses count as identity
// signals only when emailSignals is set. A threshold outside (0, 1] falls
// back to DefaultNameOverlapThreshold.
func NewClassifier(emailSignals bool, nameThreshold float64) *Classifier {
	if nameThreshold <= 0 || nameThreshold > 1 {
		nameThreshold = DefaultNameOverlapThreshold
	}
	return &Classifier{
		emailSignals:  emailSignals,
		nameThreshold: nameThreshold,
	}
}

// NameThreshold returns the flexible-match overlap threshold in use
func (c *Classifier) NameThreshold() float64 {
	return c.nameThreshold
}

// EmailSignals reports whether email addresses count as identity signals
func (c *Classifier) EmailSignals() bool {
	return c.emailSignals
}

// ClassifySender evaluates a parsed From header in structured mode
func (c *Classifier) ClassifySender(p core.Profile, s core.Sender) core.Verdict {
	nameMatched := NameMatchesStructured(p.Name, s.Name)

	idMatched := c.ProfileRegCode(p, s.RegCode)
	if !idMatched && c.emailSignals && s.Address != "" {
		idMatched = c.ProfileEmail(p, s.Address)
	}
	return core.Decide(nameMatched, idMatched)
}

// ClassifyContent evaluates subject and body in presence mode
func (c *Classifier) ClassifyContent(p core.Profile, subject, body string) core.Verdict {
	return c.ClassifyText(p, subject+"\n"+body)
}

// ClassifyText evaluates free text in presence mode
func (c *Classifier) ClassifyText(p core.Profile, text string) core.Verdict {
	nameMatched := ContainsNameInOrder(text, p.Name)

	idMatched := containsFold(text, p.RegistrationNumber)
	if !idMatched && c.emailSignals {
		for _, e := range p.Emails() {
			if containsFold(text, e) {
				idMatched = true
				break
			}
		}
	}
	return core.Decide(nameMatched, idMatched)
}

// NameMatches applies the flexible comparison used for attachment content
func (c *Classifier) NameMatches(p core.Profile, candidate string) bool {
	return NameMatchesFlexible(p.Name, candidate, c.nameThreshold)
}

// ProfileRegCode reports whether code equals the profile registration number.
// A blank value on either side never matches.
func (c *Classifier) ProfileRegCode(p core.Profile, code string) bool {
	reg := strings.TrimSpace(p.RegistrationNumber)
	code = strings.TrimSpace(code)
	return reg != "" && code != "" && strings.EqualFold(reg, code)
}

// ProfileEmail reports whether address is one of the profile's emails
func (c *Classifier) ProfileEmail(p core.Profile, address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	for _, e := range p.Emails() {
		if e == address {
			return true
		}
	}
	return false
}
