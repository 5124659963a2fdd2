package configfile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoHashtagMapUnmarshalNormalizesKeys(t *testing.T) {
	var m GeoHashtagMap
	err := json.Unmarshal([]byte(`{"NYC": {"city": "New York", "region": "NY", "country": "US"}, "Golden-Retriever!": {"city": "Anywhere"}}`), &m)
	require.NoError(t, err)

	entry, ok := m["nyc"]
	assert.True(t, ok)
	assert.Equal(t, "New York", entry.City)

	_, ok = m["goldenretriever"]
	assert.True(t, ok)
}
