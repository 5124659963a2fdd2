package profileresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionDIDsDedupesAcrossGroups(t *testing.T) {
	got := unionDIDs(
		[]string{"did:plc:a", "did:plc:b"},
		[]string{"did:plc:b", "did:plc:c"},
		nil,
		[]string{"did:plc:a"},
	)

	assert.ElementsMatch(t, []string{"did:plc:a", "did:plc:b", "did:plc:c"}, got)
}

func TestUnionDIDsEmpty(t *testing.T) {
	assert.Empty(t, unionDIDs())
	assert.Empty(t, unionDIDs(nil, []string{}))
}
