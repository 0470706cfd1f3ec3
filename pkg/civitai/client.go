package civitai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"civsync/pkg/errors"
	"civsync/pkg/logger"
)

// Client is an HTTP client for the Civitai REST API. Listing requests carry
// the bearer token when one is configured; asset fetches never do.
type Client struct {
	listingClient *http.Client
	assetClient   *http.Client
	token         string
	userAgent     string
	logger        logger.Logger
}

// NewClient creates a new Civitai API client. token may be empty; the public
// listing endpoint works unauthenticated with reduced visibility.
func NewClient(listingTimeout, assetTimeout time.Duration, token string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		listingClient: &http.Client{Timeout: listingTimeout},
		assetClient:   &http.Client{Timeout: assetTimeout},
		token:         token,
		userAgent:     "civsync/1.0",
		logger:        log,
	}
}

// SetUserAgent overrides the User-Agent header sent on all requests
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// FetchImagesPage performs one GET against the listing endpoint. pageURL is
// either the first-page URL from ListingURL or the opaque nextPage URL from
// a previous envelope.
func (c *Client) FetchImagesPage(pageURL string) (*ImagesResponse, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.listingClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("listing request failed", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("listing request completed", map[string]interface{}{
		"url":      pageURL,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	var envelope ImagesResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse listing response", map[string]interface{}{
			"url":          pageURL,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return &envelope, nil
}

// DownloadImage fetches the binary payload of one image. The asset endpoint
// needs no authorization.
func (c *Client) DownloadImage(imageURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.assetClient.Do(req)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to download image: %v", err),
			Code:    resp.StatusCode,
		}
	}

	c.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"url":  imageURL,
		"size": len(data),
	})

	return data, nil
}

// checkResponseStatus maps HTTP status codes onto the error taxonomy
func checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 400:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	default:
		return nil
	}
}
