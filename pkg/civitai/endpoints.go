package civitai

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the base URL for the Civitai REST API
	DefaultBaseURL = "https://civitai.com/api/v1"

	// ImagesEndpoint is the paginated image listing endpoint
	ImagesEndpoint = "/images"

	// DefaultPageSize is the default number of items per listing page
	DefaultPageSize = 100

	// MaxPageSize is the largest page size the API accepts
	MaxPageSize = 200
)

// ListingQuery holds the fixed query parameters of one collection pass
type ListingQuery struct {
	Username string
	Sort     string // Newest | Most Reactions | Most Comments
	Period   string // AllTime | Year | Month | Week | Day
	NSFW     string // None | Soft | Mature | X
	PageSize int
}

// ListingURL constructs the first-page URL for a listing query. Subsequent
// pages come from the response envelope's nextPage URL, never from here.
func ListingURL(baseURL string, q ListingQuery) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	} else if size > MaxPageSize {
		size = MaxPageSize
	}

	params := url.Values{}
	params.Set("username", q.Username)
	params.Set("limit", strconv.Itoa(size))
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Period != "" {
		params.Set("period", q.Period)
	}
	if q.NSFW != "" {
		params.Set("nsfw", q.NSFW)
	}

	return fmt.Sprintf("%s%s?%s", baseURL, ImagesEndpoint, params.Encode())
}

// SanitizeUsername strips the decorations people paste along with a creator
// name (a leading @, trailing slashes or spaces).
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}

	if username[0] == '@' {
		username = username[1:]
	}

	for len(username) > 0 && (username[len(username)-1] == '/' || username[len(username)-1] == ' ') {
		username = username[:len(username)-1]
	}

	return username
}
