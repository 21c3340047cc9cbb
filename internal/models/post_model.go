package models

import "time"

type Post struct {
	ID            string     `db:"id" json:"id" bson:"_id"`
	UserID        string     `db:"user_id" json:"user_id" bson:"user_id"`
	BusinessID    string     `db:"business_id" json:"business_id" bson:"business_id"`
	CampaignID    string     `db:"campaign_id" json:"campaign_id,omitempty" bson:"campaign_id,omitempty"`
	Content       string     `db:"content" json:"content" bson:"content"`
	Platform      string     `db:"platform" json:"platform" bson:"platform"`
	Status        string     `db:"status" json:"status" bson:"status"` // draft, scheduled, publishing, published, failed
	ScheduledDate *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty" bson:"scheduled_date,omitempty"`
	PublishedDate *time.Time `db:"published_date" json:"published_date,omitempty" bson:"published_date,omitempty"`
	FailureReason string     `db:"failure_reason" json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	RemotePostID  string     `db:"remote_post_id" json:"remote_post_id,omitempty" bson:"remote_post_id,omitempty"`
	MediaURLs     []string   `db:"media_urls" json:"media_urls" bson:"media_urls"`
	AIGenerated   bool       `db:"ai_generated" json:"ai_generated" bson:"ai_generated"`
	ClaimedAt     *time.Time `db:"claimed_at" json:"-" bson:"claimed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

// IsDue reports whether a scheduled post should be published at now.
// Posts without a scheduled date are never due.
func (p *Post) IsDue(now time.Time) bool {
	return p.ScheduledDate != nil && !p.ScheduledDate.After(now)
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const PlatformFacebook = "facebook"
