package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// keyLength is the length of a hex-encoded SHA-256 key.
const keyLength = sha256.Size * 2

// QueryKey derives the cache key of a query execution. Whitespace runs in the
// query are collapsed so reformatting a query does not miss the cache.
func QueryKey(server, graph, query string, limit int) string {
	h := sha256.New()
	for _, part := range []string{
		strings.TrimRight(server, "/"),
		graph,
		NormalizeQuery(query),
		strconv.Itoa(limit),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeQuery trims the query and collapses whitespace runs to one space.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func validKey(key string) bool {
	if len(key) != keyLength {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}
