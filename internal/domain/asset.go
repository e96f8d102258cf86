package domain

// Asset is a catalogued reusable reference image. Entries are immutable once
// the catalog is loaded.
type Asset struct {
	AssetID           string `json:"asset_id"`
	FileName          string `json:"file_name"`
	AssetType         string `json:"asset_type"`
	DefaultContext    string `json:"default_context"`
	VisualDescription string `json:"visual_description"`
	SuggestedUse      string `json:"suggested_use"`
}

// ResolvedRef pairs a reference asset ID with the public URL sent to a generator.
type ResolvedRef struct {
	RefID       string `json:"ref_id"`
	ResolvedURL string `json:"resolved_url"`
}
