package redisx

import "time"

const (
	// Navigation badges per merchant: hash badge:{merchant_id} -> new_orders, unread_messages
	KeyBadges = "badge:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Alert feed per merchant: list alerts:{merchant_id}, newest first
	KeyAlertFeed = "alerts:%s"
)

var (
	TTLBadges    = 10 * time.Minute
	TTLDedup     = 48 * time.Hour
	TTLAlertFeed = 7 * 24 * time.Hour
)
