package transfer

type BatchTransformRequest struct {
	AssetIDs []string `json:"asset_ids"`
	Style    string   `json:"style"`
	Prompt   string   `json:"prompt"` // required when style is "custom"
	Model    string   `json:"model"`
}

type BatchItemResult struct {
	AssetID   string `json:"asset_id"`
	Success   bool   `json:"success"`
	OutputURL string `json:"output_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

type BatchSummary struct {
	JobID        string            `json:"job_id"`
	Total        int               `json:"total"`
	SuccessCount int               `json:"success_count"`
	Results      []BatchItemResult `json:"results"`
}

// BatchProgress is the snapshot the dashboard polls while a batch runs.
type BatchProgress struct {
	JobID        string `json:"job_id"`
	Total        int    `json:"total"`
	Current      int    `json:"current"`
	SuccessCount int    `json:"success_count"`
	Done         bool   `json:"done"`
}

type ComparisonEntry struct {
	Model     string `json:"model"`
	Success   bool   `json:"success"`
	OutputURL string `json:"output_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ComparisonResult struct {
	AssetID string            `json:"asset_id"`
	Entries []ComparisonEntry `json:"entries"`
}

type AdoptRequest struct {
	AssetID string          `json:"asset_id"`
	Entry   ComparisonEntry `json:"entry"`
}
