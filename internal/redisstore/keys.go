package redisstore

import "strings"

// DefaultKeyPrefix is used when no prefix is configured
const DefaultKeyPrefix = "docket"

// Keys builds the Redis key names for one key prefix.
type Keys struct {
	prefix string
}

// NewKeys returns key builders under prefix
func NewKeys(prefix string) Keys {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{prefix: prefix}
}

// Entry holds the JSON encoded entry
func (k Keys) Entry(id string) string {
	return k.prefix + ":entry:" + id
}

// Active holds the ID of the user's active entry. Its existence is the
// one-active-entry lock.
func (k Keys) Active(userID string) string {
	return k.prefix + ":active:" + userID
}

// UserEntries is the set of every entry ID the user has created
func (k Keys) UserEntries(userID string) string {
	return k.prefix + ":entries:" + userID
}

// Changes is the pub/sub channel announcing writes to the user's entries
func (k Keys) Changes(userID string) string {
	return k.prefix + ":changes:" + userID
}
