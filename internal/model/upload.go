package model

// UploadResult is the synchronous outcome of a committed image upload.
type UploadResult struct {
	URL         string            `json:"url"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	SizeBytes   int64             `json:"sizeBytes"`
	Format      string            `json:"format"`
	Resolutions map[string]string `json:"resolutions,omitempty"`
}

// DirectUpload is the handle returned for a video upload: the provider-issued
// upload target plus the identifiers needed to correlate later lifecycle
// events. The claim stays in processing until the reconciler observes a
// terminal provider event.
type DirectUpload struct {
	ClaimID   string `json:"claimId"`
	AssetID   string `json:"assetId"`
	UploadID  string `json:"uploadId"`
	UploadURL string `json:"uploadUrl"`
}
