package imap

import (
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewestFirst(t *testing.T) {
	uids := []imap.UID{3, 7, 9, 12}
	assert.Equal(t, []string{"12", "9"}, newestFirst(uids, 2))
	assert.Equal(t, []string{"12", "9", "7", "3"}, newestFirst(uids, 10))
	assert.Empty(t, newestFirst(nil, 5))
}

func TestParseUID(t *testing.T) {
	uid, err := parseUID("42")
	require.NoError(t, err)
	assert.Equal(t, imap.UID(42), uid)

	for _, bad := range []string{"", "0", "abc", "-1", "99999999999"} {
		_, err := parseUID(bad)
		assert.Error(t, err, bad)
	}
}
