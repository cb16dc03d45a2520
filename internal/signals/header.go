package signals

import (
	"fmt"
	"io"
	"mime"
	"net/mail"
	"regexp"
	"strings"

	"github.com/mikey/shortlist-watcher/internal/core"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"
)

var (
	viaParenSuffix    = regexp.MustCompile(`(?i)\s+\(via\s+.*\)$`)
	viaSuffix         = regexp.MustCompile(`(?i)\s+via\s+.*$`)
	googleGroupSuffix = regexp.MustCompile(`(?i)\s*[-–]\s*Google\s+Groups$`)
	separatorEdges    = regexp.MustCompile(`^[,\-–\s]+|[,\-–\s]+$`)
)

// wordDecoder decodes RFC 2047 encoded words in any charset x/text knows about
var wordDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
		}
		return enc.NewDecoder().Reader(input), nil
	},
}

// DecodeHeader decodes encoded words in a header value.
// Undecodable input is returned unchanged.
func DecodeHeader(raw string) string {
	decoded, err := wordDecoder.DecodeHeader(raw)
	if err != nil {
		decoded = raw
	}
	return norm.NFKC.String(decoded)
}

// CleanDisplayName removes list-relay decorations, quotes and extra whitespace
func CleanDisplayName(name string) string {
	name = norm.NFKC.String(name)
	name = CollapseSpaces(name)
	name = viaParenSuffix.ReplaceAllString(name, "")
	name = viaSuffix.ReplaceAllString(name, "")
	name = googleGroupSuffix.ReplaceAllString(name, "")
	name = strings.Trim(name, `"' `)
	return CollapseSpaces(name)
}

// SplitNameAndReg separates a registration code embedded in a display name
// from the name itself, e.g. "Krish Verma - 22BCE2382".
func SplitNameAndReg(display string) (name, reg string) {
	codes := RegCodes(display)
	if len(codes) == 0 {
		return CollapseSpaces(display), ""
	}
	reg = codes[0]
	name = regCodePattern.ReplaceAllString(display, " ")
	name = CollapseSpaces(name)
	name = separatorEdges.ReplaceAllString(name, "")
	return CollapseSpaces(name), reg
}

// ParseSender parses a From header into a cleaned display name, address,
// name and registration code. It never fails; unparseable headers fall back
// to pattern matching.
func ParseSender(from string) core.Sender {
	s := core.Sender{Raw: from}
	if strings.TrimSpace(from) == "" {
		return s
	}

	parser := mail.AddressParser{WordDecoder: wordDecoder}
	if addr, err := parser.Parse(from); err == nil {
		s.DisplayName = addr.Name
		s.Address = strings.ToLower(addr.Address)
	} else {
		decoded := DecodeHeader(from)
		if emails := Emails(decoded); len(emails) > 0 {
			s.Address = emails[len(emails)-1]
		}
		if i := strings.Index(decoded, "<"); i >= 0 {
			s.DisplayName = decoded[:i]
		} else if s.Address == "" {
			s.DisplayName = decoded
		}
	}

	s.DisplayName = CleanDisplayName(s.DisplayName)
	s.Name, s.RegCode = SplitNameAndReg(s.DisplayName)
	return s
}
