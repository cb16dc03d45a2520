package gmail

import (
	"encoding/base64"
	"strings"

	"github.com/mikey/shortlist-watcher/internal/utils"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// plainText walks a MIME part tree and returns the first text/plain body,
// preferring it over text/html inside multipart/alternative
func plainText(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}

	mime := strings.ToLower(part.MimeType)
	if mime == "text/plain" && part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}

	for _, sub := range part.Parts {
		if strings.ToLower(sub.MimeType) == "text/plain" {
			if body := plainText(sub); body != "" {
				return body
			}
		}
	}
	for _, sub := range part.Parts {
		if body := plainText(sub); body != "" {
			return body
		}
	}
	return ""
}

// htmlText returns the first text/html body in the tree
func htmlText(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.ToLower(part.MimeType) == "text/html" && part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if body := htmlText(sub); body != "" {
			return body
		}
	}
	return ""
}

// bodyText prefers the plain text body and falls back to stripped HTML
func bodyText(part *gmailv1.MessagePart) string {
	if body := plainText(part); body != "" {
		return body
	}
	return utils.StripHTML(htmlText(part))
}

// attachmentParts returns every part carrying a filename
func attachmentParts(part *gmailv1.MessagePart) []*gmailv1.MessagePart {
	if part == nil {
		return nil
	}
	var out []*gmailv1.MessagePart
	if part.Filename != "" && part.Body != nil {
		out = append(out, part)
	}
	for _, sub := range part.Parts {
		out = append(out, attachmentParts(sub)...)
	}
	return out
}

func header(headers []*gmailv1.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func decodeBase64URL(data string) string {
	return string(decodeBase64URLBytes(data))
}

func decodeBase64URLBytes(data string) []byte {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail uses unpadded base64url
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return nil
		}
	}
	return b
}
