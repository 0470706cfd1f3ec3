package civitai

import (
	"encoding/json"
	"strconv"
)

// ImageRecord is one image as listed by the Civitai API. Identity is ID;
// the record is immutable once fetched for a given sync pass.
//
// Only the fields civsync acts on are typed. Everything else the API sends
// is preserved verbatim in Extra so a manifest written by one version of the
// tool round-trips through a newer one without losing fields.
type ImageRecord struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`

	// Extra holds remote metadata fields this tool does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownRecordFields are the JSON keys mapped to typed ImageRecord fields.
var knownRecordFields = map[string]bool{
	"id": true, "url": true, "username": true, "width": true, "height": true,
}

// Key returns the manifest key for the record. The manifest is a JSON
// object, so identifiers are stored as strings.
func (r *ImageRecord) Key() string {
	return strconv.FormatInt(r.ID, 10)
}

// UnmarshalJSON decodes the typed fields and captures every unknown field
// into Extra.
func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	type plain ImageRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if knownRecordFields[key] {
			delete(raw, key)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}

	*r = ImageRecord(p)
	r.Extra = raw
	return nil
}

// MarshalJSON emits the typed fields merged with the opaque Extra fields.
func (r ImageRecord) MarshalJSON() ([]byte, error) {
	type plain ImageRecord
	base, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}

	if len(r.Extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range r.Extra {
		if !knownRecordFields[key] {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// ImagesResponse is the listing endpoint envelope
type ImagesResponse struct {
	Items    []ImageRecord `json:"items"`
	Metadata PageMetadata  `json:"metadata"`
}

// PageMetadata carries the pagination state of a listing response. NextPage
// is a complete URL and is treated as an opaque continuation token: present
// means more pages, absent means done.
type PageMetadata struct {
	TotalItems  int    `json:"totalItems,omitempty"`
	CurrentPage int    `json:"currentPage,omitempty"`
	PageSize    int    `json:"pageSize,omitempty"`
	NextPage    string `json:"nextPage,omitempty"`
}
