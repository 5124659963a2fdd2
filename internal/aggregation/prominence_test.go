package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDIDsPostCards(t *testing.T) {
	result := []byte(`{"top": [{"author_did": "did:plc:a"}, {"author_did": "did:plc:b"}]}`)
	got := extractDIDs(result, didFieldsPostCards)
	assert.ElementsMatch(t, []string{"did:plc:a", "did:plc:b"}, got)
}

func TestExtractDIDsUserScores(t *testing.T) {
	result := []byte(`{"users": [{"did": "did:plc:a", "score": 1.5}]}`)
	got := extractDIDs(result, didFieldsUserScores)
	assert.Equal(t, []string{"did:plc:a"}, got)
}

func TestExtractDIDsPosterCountsAndStreaksAndFirstTimePosters(t *testing.T) {
	posters := []byte(`{"posters": [{"did": "did:plc:a", "count": 3}]}`)
	assert.Equal(t, []string{"did:plc:a"}, extractDIDs(posters, didFieldsPosterCounts))

	streaks := []byte(`{"streaks": [{"did": "did:plc:b", "days": 5}]}`)
	assert.Equal(t, []string{"did:plc:b"}, extractDIDs(streaks, didFieldsStreaks))

	firstTime := []byte(`{"first_time_posters": [{"did": "did:plc:c"}]}`)
	assert.Equal(t, []string{"did:plc:c"}, extractDIDs(firstTime, didFieldsFirstTimePosters))
}

func TestExtractDIDsMissingArrayKey(t *testing.T) {
	result := []byte(`{"other": []}`)
	assert.Nil(t, extractDIDs(result, didFieldsUserScores))
}

func TestExtractDIDsEmptyResult(t *testing.T) {
	assert.Nil(t, extractDIDs(nil, didFieldsUserScores))
	assert.Nil(t, extractDIDs([]byte{}, didFieldsUserScores))
}

func TestExtractDIDsMalformedJSON(t *testing.T) {
	assert.Nil(t, extractDIDs([]byte(`not json`), didFieldsUserScores))
}

func TestExtractDIDsMissingPerElementField(t *testing.T) {
	result := []byte(`{"users": [{"score": 1.5}, {"did": "did:plc:a"}, {"did": ""}]}`)
	got := extractDIDs(result, didFieldsUserScores)
	assert.Equal(t, []string{"did:plc:a"}, got)
}
