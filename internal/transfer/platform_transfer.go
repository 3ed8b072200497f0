package transfer

type ConnectionStatus struct {
	Connected   bool   `json:"connected"`
	AccountName string `json:"account_name,omitempty"`
}

type CaptionResult struct {
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
}

type PublishContainerResponse struct {
	ID string `json:"id"`
}

type PublishErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
