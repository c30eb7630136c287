package cache

import (
	"strings"
)

// KeyPrefix is the first segment of every Redis key written by RedisStore.
const KeyPrefix = "fragment"

// Key identifies a fragment inside a RedisStore.
type Key struct {
	// Namespace separates independent caches sharing one Redis database
	Namespace string

	// Path is the fragment path, used verbatim
	Path string
}

// String generates the Redis key.
// Format: fragment:namespace:path
//
// Colons and backslashes in the namespace are escaped with a backslash.
//
// The path is not normalised: "parts/a.html" and "/parts/a.html" resolve to
// different URLs and are cached separately.
//
// Example:
//
//	fragment:sheets:parts/header.html
func (k Key) String() string {
	return namespacePrefix(k.Namespace) + k.Path
}

// Pattern returns the SCAN match pattern covering every key of a namespace
// and of no other namespace.
func Pattern(namespace string) string {
	return escapeGlob(namespacePrefix(namespace)) + "*"
}

func namespacePrefix(namespace string) string {
	if namespace == "" {
		namespace = "default"
	}
	return KeyPrefix + ":" + escapeNamespace(namespace) + ":"
}

// escapeNamespace escapes ':' so that no namespace prefix is a prefix of
// another, e.g. "a" and "a:b".
func escapeNamespace(namespace string) string {
	if !strings.ContainsAny(namespace, `:\`) {
		return namespace
	}
	var b strings.Builder
	for _, r := range namespace {
		switch r {
		case ':', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeGlob escapes Redis glob metacharacters.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
