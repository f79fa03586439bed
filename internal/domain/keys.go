package domain

// KeyPrefix namespaces every key and index shopdex reads from the backend.
const KeyPrefix = "shopdex:"

// IndexName returns the search index name for a collection.
func IndexName(collection string) string {
	return KeyPrefix + collection + ":idx"
}

// DocPrefix returns the key prefix of product documents in a collection.
func DocPrefix(collection string) string {
	return KeyPrefix + collection + ":"
}
