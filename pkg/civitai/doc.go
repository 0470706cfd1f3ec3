// Package civitai provides a client for the Civitai public REST API.
//
// This package includes:
//   - A configurable HTTP client with bearer-token auth on listing requests
//   - Type-safe models for the image listing envelope, with opaque
//     pass-through of unknown metadata fields
//   - Helper functions for constructing listing URLs
//
// Example usage:
//
//	client := civitai.NewClient(20*time.Second, 30*time.Second, token, nil)
//
//	page, err := client.FetchImagesPage(civitai.ListingURL("", civitai.ListingQuery{
//	    Username: "some_creator",
//	    Sort:     "Newest",
//	}))
//	if err != nil {
//	    var apiErr *errors.Error
//	    if stderrors.As(err, &apiErr) && apiErr.Type == errors.ErrorTypeRateLimit {
//	        // back off
//	    }
//	}
//
//	for _, item := range page.Items {
//	    data, err := client.DownloadImage(item.URL)
//	    // decode and store
//	}
package civitai
