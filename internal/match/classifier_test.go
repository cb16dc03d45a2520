package match

import (
	"testing"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/signals"
	"github.com/stretchr/testify/assert"
)

var krish = core.Profile{Name: "Krish Verma", RegistrationNumber: "22BCE2382"}

func TestClassifySender(t *testing.T) {
	c := NewClassifier(true, 0)

	tests := []struct {
		name string
		from string
		want core.Verdict
	}{
		{"name and reg", `"Krish Verma 22BCE2382" <k@example.com>`, core.ConfirmedMatch},
		{"name only", "Krish Verma <k@example.com>", core.Possibility},
		{"longer display name", "Krish Kumar Verma <k@example.com>", core.Possibility},
		{"reg only", "Student 22bce2382 <s@example.com>", core.PartialMatch},
		{"unrelated", "Placement Office <cdc@example.com>", core.NoMatch},
		{"first name only", "Krish <k@example.com>", core.NoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ClassifySender(krish, signals.ParseSender(tt.from)))
		})
	}
}

func TestClassifySenderEmail(t *testing.T) {
	p := krish
	p.PrimaryEmail = "Krish@Example.com"
	s := signals.ParseSender("Someone <krish@example.com>")

	assert.Equal(t, core.PartialMatch, NewClassifier(true, 0).ClassifySender(p, s))
	assert.Equal(t, core.NoMatch, NewClassifier(false, 0).ClassifySender(p, s))
}

func TestClassifyContent(t *testing.T) {
	c := NewClassifier(true, 0)

	assert.Equal(t, core.Possibility, c.ClassifyContent(krish, "Results", "Congrats Krish Verma, welcome"))
	assert.Equal(t, core.PartialMatch, c.ClassifyContent(krish, "", "22BCE2382"))
	assert.Equal(t, core.ConfirmedMatch, c.ClassifyContent(krish, "Shortlist: krish  VERMA", "reg 22bce2382"))
	assert.Equal(t, core.NoMatch, c.ClassifyContent(krish, "Weekly newsletter", "Nothing to see here"))
}

func TestClassifyContentEmail(t *testing.T) {
	p := core.Profile{Name: "Krish Verma", SecondaryEmail: "krish.personal@mail.com"}

	assert.Equal(t, core.PartialMatch, NewClassifier(true, 0).ClassifyText(p, "send to KRISH.PERSONAL@mail.com"))
	assert.Equal(t, core.NoMatch, NewClassifier(false, 0).ClassifyText(p, "send to KRISH.PERSONAL@mail.com"))
}

func TestEmptyProfileNeverMatches(t *testing.T) {
	c := NewClassifier(true, 0)
	var p core.Profile

	assert.Equal(t, core.NoMatch, c.ClassifyText(p, "Krish Verma 22BCE2382 krish@example.com"))
	assert.Equal(t, core.NoMatch, c.ClassifySender(p, signals.ParseSender("Krish Verma <krish@example.com>")))
}

func TestBlankRegistrationNumberNeverMatches(t *testing.T) {
	c := NewClassifier(true, 0)
	p := core.Profile{Name: "Krish Verma", RegistrationNumber: "  "}

	assert.Equal(t, core.NoMatch, c.ClassifySender(p, signals.ParseSender("Placement Cell <cdc@vit.ac.in>")))
	assert.Equal(t, core.NoMatch, c.ClassifyText(p, "Dear students, results are out"))
	assert.False(t, c.ProfileRegCode(p, ""))
	assert.False(t, c.ProfileRegCode(krish, " "))
	assert.True(t, c.ProfileRegCode(krish, " 22bce2382 "))
}

func TestContainsNameInOrder(t *testing.T) {
	assert.True(t, ContainsNameInOrder("Krish ... later Verma", "Krish Verma"))
	assert.False(t, ContainsNameInOrder("Verma ... eventually Krish", "Krish Verma"))
	assert.True(t, ContainsNameInOrder("dear KRISH\n\tverma", "krish verma"))
	assert.False(t, ContainsNameInOrder("Krish Verma", ""))
	assert.False(t, ContainsNameInOrder("", "Krish Verma"))
}

func TestNameMatchesStructured(t *testing.T) {
	assert.True(t, NameMatchesStructured("Krish Verma", "krish verma"))
	assert.True(t, NameMatchesStructured("Krish Verma", "Verma Krish Kumar"))
	assert.False(t, NameMatchesStructured("Krish Kumar Verma", "Krish Verma"))
	assert.False(t, NameMatchesStructured("", "Krish Verma"))
}

func TestNameMatchesFlexible(t *testing.T) {
	tests := []struct {
		name      string
		profile   string
		candidate string
		threshold float64
		want      bool
	}{
		{"profile subset of cell", "Krish Verma", "Krish Kumar Verma", 0.8, true},
		{"cell subset of profile", "Krish Kumar Verma", "Krish Verma", 0.8, true},
		{"overlap below threshold", "Anna Maria De Souza", "Anna Maria Lopez", 0.8, false},
		{"overlap at threshold", "Anna Maria De Souza", "Anna Maria De Lopez", 0.75, true},
		{"disjoint", "Krish Verma", "Priya Sharma", 0.8, false},
		{"empty candidate", "Krish Verma", "", 0.8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameMatchesFlexible(tt.profile, tt.candidate, tt.threshold))
		})
	}
}

func TestNewClassifierThresholdFallback(t *testing.T) {
	assert.Equal(t, DefaultNameOverlapThreshold, NewClassifier(true, 0).NameThreshold())
	assert.Equal(t, DefaultNameOverlapThreshold, NewClassifier(true, 3).NameThreshold())
	assert.Equal(t, 0.5, NewClassifier(true, 0.5).NameThreshold())
}
