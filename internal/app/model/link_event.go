package model

import "time"

// LinkEvent records a successful slug registration for the audit trail.
// Events are published on the write path only; resolution never emits them.
type LinkEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Slug      string    `json:"slug" gorm:"size:16;index;not null"`
	TargetURL string    `json:"target_url" gorm:"type:text;not null"`
	CallerKey string    `json:"caller_key" gorm:"size:64"`
	RequestID string    `json:"request_id" gorm:"size:36"`
	TTL       int64     `json:"ttl_seconds" gorm:"column:ttl_seconds;not null"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	LinkStreamName     = "LINKS"
	LinkStreamSubject  = "links.registered"
	LinkConsumerName   = "link-auditor"
	LinkStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
