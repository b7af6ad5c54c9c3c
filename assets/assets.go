// Package assets resolves stable asset identifiers to display metadata and
// downloadable URLs. Assets are read-only from the client's perspective.
package assets

import (
	"context"
	"errors"
)

// Tier is the asset's category tier.
type Tier string

const (
	TierStandard Tier = "STANDARD"
	TierPremium  Tier = "PREMIUM"
)

// Asset is the catalog entry for a downloadable artifact. Src, MainFile and
// FileURL may each be empty; consumers check them in that priority order.
type Asset struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Tier         Tier   `json:"tier"`
	Src          string `json:"src,omitempty"`
	MainFile     string `json:"mainFile,omitempty"`
	FileURL      string `json:"fileUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	PreviewURL   string `json:"previewUrl,omitempty"`
	Views        int64  `json:"views,omitempty"`
	Downloads    int64  `json:"downloads,omitempty"`
}

// DownloadURL returns the best available artifact URL: the primary source,
// then the main file reference, then the generic file URL. Empty when none
// is set.
func (a Asset) DownloadURL() string {
	if a.Src != "" {
		return a.Src
	}
	if a.MainFile != "" {
		return a.MainFile
	}
	return a.FileURL
}

// IsPremium reports whether downloading the asset consumes a premium credit.
func (a Asset) IsPremium() bool { return a.Tier == TierPremium }

var ErrMissingAssetID = errors.New("assets: asset id is required")

// Lookup fetches full asset metadata by id.
type Lookup interface {
	GetAssetByID(ctx context.Context, bearer, assetID string) (*Asset, error)
}
