package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsacre/mididings-sub000/backend"
)

func TestMatchPortsFiltersByPattern(t *testing.T) {
	names := []string{"Keyboard 1", "Keyboard 2", "Pad 1"}
	out, err := backend.MatchPorts("^Keyboard", names)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keyboard 1", "Keyboard 2"}, out)
}

func TestMatchPortsBadPatternWraps(t *testing.T) {
	_, err := backend.MatchPorts("(", nil)
	require.Error(t, err)
	var badPattern *backend.ErrBadPattern
	assert.ErrorAs(t, err, &badPattern)
}
