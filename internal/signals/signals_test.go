package signals

import (
	"testing"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestRegCodes(t *testing.T) {
	assert.Equal(t, []string{"22BCE2382"}, RegCodes("reg no 22bce2382, again 22BCE2382"))
	assert.Equal(t, []string{"21CSE1001", "22BCE2382"}, RegCodes("21CSE1001/22BCE2382"))
	assert.Nil(t, RegCodes("x122BCE23820 no boundary"))
	assert.Nil(t, RegCodes(""))
}

func TestEmails(t *testing.T) {
	got := Emails("Contact Krish.Verma@Example.com or placements@vit.ac.in; krish.verma@example.com")
	assert.Equal(t, []string{"krish.verma@example.com", "placements@vit.ac.in"}, got)
	assert.Nil(t, Emails("no address here @ all"))
}

func TestExtractFromText(t *testing.T) {
	sigs := ExtractFromText("Dear Krish Verma (22BCE2382), reply to hr@corp.com", "body")

	assert.Equal(t, []string{"22BCE2382"}, sigs.Values(core.SignalRegCode))
	assert.Equal(t, []string{"hr@corp.com"}, sigs.Values(core.SignalEmail))
	assert.Contains(t, sigs.Values(core.SignalName), "Dear Krish Verma")
	for _, s := range sigs {
		assert.Equal(t, "body", s.Location)
	}
}

func TestIsLikelyName(t *testing.T) {
	tests := []struct {
		cell string
		want bool
	}{
		{"Krish Verma", true},
		{"Krish Kumar Verma", true},
		{"  Anna Maria De Souza ", true},
		{"Krish", false},
		{"KRISH VERMA", false},
		{"krish verma", false},
		{"Krish V", false},
		{"Krish Verma 22", true},
		{"12345", false},
		{"krish@example.com", false},
		{"Visit Www Example", false},
		{"Call 9876543210 Now", false},
		{"One Two Three Four Five", false},
		{"ab", false},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyName(tt.cell))
		})
	}
}

func TestCleanDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Krish Verma"`, "Krish Verma"},
		{"Krish   Verma via Placement Cell", "Krish Verma"},
		{"Krish Verma (via Google Groups)", "Krish Verma"},
		{"Placement Updates - Google Groups", "Placement Updates"},
		{"  'Krish Verma'  ", "Krish Verma"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanDisplayName(tt.in), tt.in)
	}
}

func TestSplitNameAndReg(t *testing.T) {
	tests := []struct {
		in, name, reg string
	}{
		{"Krish Verma 22BCE2382", "Krish Verma", "22BCE2382"},
		{"Krish Verma - 22bce2382", "Krish Verma", "22BCE2382"},
		{"22BCE2382, Krish Verma", "Krish Verma", "22BCE2382"},
		{"Krish Verma", "Krish Verma", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		name, reg := SplitNameAndReg(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.reg, reg, tt.in)
	}
}

func TestParseSender(t *testing.T) {
	t.Run("plain address", func(t *testing.T) {
		s := ParseSender(`"Krish Verma 22BCE2382" <Krish.Verma@Example.com>`)
		assert.Equal(t, "Krish Verma 22BCE2382", s.DisplayName)
		assert.Equal(t, "krish.verma@example.com", s.Address)
		assert.Equal(t, "Krish Verma", s.Name)
		assert.Equal(t, "22BCE2382", s.RegCode)
	})

	t.Run("encoded word", func(t *testing.T) {
		s := ParseSender("=?UTF-8?B?S3Jpc2ggVmVybWE=?= <krish@example.com>")
		assert.Equal(t, "Krish Verma", s.DisplayName)
		assert.Equal(t, "krish@example.com", s.Address)
	})

	t.Run("latin1 quoted printable", func(t *testing.T) {
		s := ParseSender("=?ISO-8859-1?Q?Ren=E9_Dupont?= <rene@example.com>")
		assert.Equal(t, "René Dupont", s.DisplayName)
	})

	t.Run("relay decoration", func(t *testing.T) {
		s := ParseSender(`"Krish Verma via Placements" <placements@example.com>`)
		assert.Equal(t, "Krish Verma", s.Name)
	})

	t.Run("unparseable falls back", func(t *testing.T) {
		s := ParseSender("Verma, Krish <krish@example.com>")
		assert.Equal(t, "krish@example.com", s.Address)
		assert.Equal(t, "Verma, Krish", s.DisplayName)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, core.Sender{}, ParseSender(""))
	})
}

func TestDocumentNames(t *testing.T) {
	text := "Shortlisted Candidates\n" +
		"Name: krish verma\n" +
		"1. Priya Sharma 21CSE1234\n" +
		"Rahul Mehta\n" +
		"x\n"

	names := DocumentNames(text)

	assert.Contains(t, names, "Krish Verma")
	assert.Contains(t, names, "Priya Sharma")
	assert.Contains(t, names, "Rahul Mehta")
	assert.Contains(t, names, "Shortlisted Candidates")
	assert.Empty(t, DocumentNames(""))
}
