package civitai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRecordKey(t *testing.T) {
	r := ImageRecord{ID: 9223372036854775807}
	assert.Equal(t, "9223372036854775807", r.Key())

	r = ImageRecord{ID: 42}
	assert.Equal(t, "42", r.Key())
}

func TestImageRecordUnmarshalCapturesUnknownFields(t *testing.T) {
	data := []byte(`{
		"id": 7,
		"url": "https://img.example/7.jpeg",
		"username": "alice",
		"width": 512,
		"height": 768,
		"nsfwLevel": "Soft",
		"stats": {"likeCount": 12},
		"meta": null
	}`)

	var r ImageRecord
	require.NoError(t, json.Unmarshal(data, &r))

	assert.Equal(t, int64(7), r.ID)
	assert.Equal(t, "https://img.example/7.jpeg", r.URL)
	assert.Equal(t, "alice", r.Username)
	assert.Equal(t, 512, r.Width)
	assert.Equal(t, 768, r.Height)

	require.Contains(t, r.Extra, "nsfwLevel")
	require.Contains(t, r.Extra, "stats")
	require.Contains(t, r.Extra, "meta")
	assert.NotContains(t, r.Extra, "id")
	assert.NotContains(t, r.Extra, "url")
}

func TestImageRecordRoundTripPreservesExtra(t *testing.T) {
	original := []byte(`{"id":7,"url":"https://img.example/7.jpeg","username":"alice","nsfwLevel":"Soft","stats":{"likeCount":12}}`)

	var r ImageRecord
	require.NoError(t, json.Unmarshal(original, &r))

	encoded, err := json.Marshal(r)
	require.NoError(t, err)

	var back ImageRecord
	require.NoError(t, json.Unmarshal(encoded, &back))

	assert.Equal(t, r.ID, back.ID)
	assert.Equal(t, r.URL, back.URL)
	assert.Equal(t, r.Username, back.Username)
	assert.JSONEq(t, `"Soft"`, string(back.Extra["nsfwLevel"]))
	assert.JSONEq(t, `{"likeCount":12}`, string(back.Extra["stats"]))
}

func TestImageRecordMarshalWithoutExtra(t *testing.T) {
	r := ImageRecord{ID: 3, URL: "https://img.example/3.jpeg", Username: "bob"}

	encoded, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"url":"https://img.example/3.jpeg","username":"bob"}`, string(encoded))
}

func TestImagesResponseDecoding(t *testing.T) {
	data := []byte(`{
		"items": [{"id": 1, "url": "u1", "username": "alice"}],
		"metadata": {"totalItems": 250, "currentPage": 1, "pageSize": 100, "nextPage": "https://api.example/images?cursor=x"}
	}`)

	var envelope ImagesResponse
	require.NoError(t, json.Unmarshal(data, &envelope))

	require.Len(t, envelope.Items, 1)
	assert.Equal(t, 250, envelope.Metadata.TotalItems)
	assert.Equal(t, "https://api.example/images?cursor=x", envelope.Metadata.NextPage)
}

func TestImagesResponseEmptyMetadata(t *testing.T) {
	var envelope ImagesResponse
	require.NoError(t, json.Unmarshal([]byte(`{"items": [], "metadata": {}}`), &envelope))

	assert.Empty(t, envelope.Items)
	assert.Empty(t, envelope.Metadata.NextPage)
}
