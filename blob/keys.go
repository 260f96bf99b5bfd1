package blob

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const suffixCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// ObjectKey builds a destination key of the form
// {category}/{userID}/{taskID}_{unixMillis}_{rand6}.{ext}. The timestamp plus
// random suffix is the only collision mitigation.
func ObjectKey(category, userID, taskID, ext string) string {
	return fmt.Sprintf("%s/%s/%s_%d_%s.%s",
		category, userID, taskID, time.Now().UnixMilli(), randomSuffix(6), ext)
}

// ExtensionForMime derives a file extension from a MIME type, falling back
// when the subtype is missing.
func ExtensionForMime(mimeType, fallback string) string {
	_, subtype, found := strings.Cut(mimeType, "/")
	if !found || subtype == "" {
		return fallback
	}
	// Strip codec parameters, e.g. "webm;codecs=opus".
	if sub, _, ok := strings.Cut(subtype, ";"); ok {
		subtype = sub
	}
	return subtype
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixCharset[rand.IntN(len(suffixCharset))]
	}
	return string(b)
}
