// Package records wraps the remote download-recording operation: the call
// that consumes a credit (or a free-quota slot) and appends the immutable
// download record server-side.
package records

import (
	"context"
	"time"
)

// Request is the recording payload. IsFree is advisory: the server decides
// free versus paid from the asset tier, and a paid recording requires
// SubscriptionID.
type Request struct {
	UserID         string `json:"userId"`
	AssetID        string `json:"assetId"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	IsFree         bool   `json:"isFree"`
}

// RecordedAsset is the nested asset view the recorder returns. MainFile may be
// a low-resolution or placeholder reference; the canonical artifact comes from
// the asset catalog.
type RecordedAsset struct {
	Title    string `json:"title,omitempty"`
	MainFile string `json:"mainFile,omitempty"`
}

// Download is the persisted record as echoed back by the recorder.
type Download struct {
	ID        string         `json:"id,omitempty"`
	Asset     *RecordedAsset `json:"asset,omitempty"`
	CreatedAt time.Time      `json:"createdAt,omitempty"`
}

// Result is the recorder's response.
type Result struct {
	Download *Download `json:"download,omitempty"`
	FileURL  string    `json:"fileUrl,omitempty"`
}

// FileReference returns the best file reference the recorder produced:
// the explicit file URL, else the nested asset's main file. Empty when the
// recorder yielded nothing resolvable.
func (r *Result) FileReference() string {
	if r == nil {
		return ""
	}
	if r.FileURL != "" {
		return r.FileURL
	}
	if r.Download != nil && r.Download.Asset != nil {
		return r.Download.Asset.MainFile
	}
	return ""
}

// Recorder persists one download action remotely.
type Recorder interface {
	RecordDownload(ctx context.Context, bearer string, req Request) (*Result, error)
}
