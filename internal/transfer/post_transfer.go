package transfer

import "time"

type PostCreation struct {
	BusinessID    string     `json:"business_id"`
	CampaignID    string     `json:"campaign_id"`
	Content       string     `json:"content"`
	Platform      string     `json:"platform"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	MediaURLs     []string   `json:"media_urls"`
	AIGenerated   bool       `json:"ai_generated"`
}

type PostReschedule struct {
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// PublishRequest selects a stored post by PostID, or carries everything inline.
type PublishRequest struct {
	PostID      string   `json:"post_id"`
	BusinessID  string   `json:"business_id"`
	Content     string   `json:"content"`
	Platform    string   `json:"platform"`
	PageID      string   `json:"page_id"`
	AccessToken string   `json:"access_token"`
	MediaURLs   []string `json:"media_urls"`
}

const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

type PostResult struct {
	PostID       string `json:"post_id"`
	BusinessID   string `json:"business_id,omitempty"`
	Platform     string `json:"platform,omitempty"`
	Status       string `json:"status"`
	RemotePostID string `json:"remote_post_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type SweepSummary struct {
	Message        string       `json:"message"`
	ScheduledFound int          `json:"scheduled_found"`
	Due            int          `json:"due"`
	Processed      int          `json:"processed"`
	Published      int          `json:"published"`
	Failed         int          `json:"failed"`
	Skipped        int          `json:"skipped"`
	Results        []PostResult `json:"results"`
}
