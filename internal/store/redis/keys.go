package redis

const (
	// KeyPrefixLink is the prefix for per-link hashes
	KeyPrefixLink = "tinylink:link:"
	// KeyLinksByCreated is the sorted set of codes scored by created_at (unix micros)
	KeyLinksByCreated = "tinylink:links:by_created"
	// KeyLinkSequence hands out link IDs
	KeyLinkSequence = "tinylink:links:seq"
)

// Hash fields of a link.
const (
	fieldID          = "id"
	fieldCode        = "code"
	fieldTarget      = "target_url"
	fieldClicks      = "total_clicks"
	fieldLastClicked = "last_clicked_at"
	fieldCreated     = "created_at"
)

// LinkKey returns the Redis key for a link by code
func LinkKey(code string) string {
	return KeyPrefixLink + code
}
