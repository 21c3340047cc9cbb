package models

import "time"

// FacebookConnection links a business to the page it publishes to.
// AccessToken is stored encrypted.
type FacebookConnection struct {
	BusinessID  string     `db:"business_id" json:"business_id" bson:"_id"`
	UserID      string     `db:"user_id" json:"user_id" bson:"user_id"`
	AccessToken string     `db:"access_token" json:"-" bson:"access_token"`
	PageID      string     `db:"page_id" json:"page_id" bson:"page_id"`
	PageName    string     `db:"page_name" json:"page_name" bson:"page_name"`
	ConnectedAt time.Time  `db:"connected_at" json:"connected_at" bson:"connected_at"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// Credential is a resolved, decrypted publishing credential.
type Credential struct {
	BusinessID  string
	AccessToken string
	PageID      string
}
