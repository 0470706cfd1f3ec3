package syncer

import "civsync/pkg/civitai"

// CivitaiClient defines the API surface the syncer needs. Implemented by
// *civitai.Client; tests substitute fakes.
type CivitaiClient interface {
	FetchImagesPage(pageURL string) (*civitai.ImagesResponse, error)
	DownloadImage(imageURL string) ([]byte, error)
}
