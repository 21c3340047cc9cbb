package transfer

type FacebookError struct {
	Message        string `json:"message"`
	Type           string `json:"type"`
	Code           int    `json:"code"`
	ErrorSubcode   int    `json:"error_subcode"`
	IsTransient    bool   `json:"is_transient"`
	ErrorUserTitle string `json:"error_user_title"`
	ErrorUserMsg   string `json:"error_user_msg"`
	FbtraceID      string `json:"fbtrace_id"`
}

// FacebookResponse covers both the photo upload and the feed publish responses.
type FacebookResponse struct {
	ID     string         `json:"id"`
	PostID string         `json:"post_id"`
	Error  *FacebookError `json:"error"`
}

type AttachedMedia struct {
	MediaFbid string `json:"media_fbid"`
}

type FacebookFeedRequest struct {
	Message       string          `json:"message"`
	AttachedMedia []AttachedMedia `json:"attached_media,omitempty"`
	AccessToken   string          `json:"access_token"`
}

type FacebookConnectionUpdate struct {
	AccessToken string `json:"access_token"`
	PageID      string `json:"page_id"`
	PageName    string `json:"page_name"`
	ExpiresIn   int    `json:"expires_in"`
}
