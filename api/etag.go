package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// computeETag derives a strong validator from the canonical JSON of a
// response model. It is a pure function of the entity's visible fields,
// so the value only changes when a mutation does.
func computeETag(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// writeConditional sets the ETag header and answers 304 when the
// caller's If-None-Match still matches. Returns true when the response
// has been written.
func writeConditional(ctx *gin.Context, v interface{}) bool {
	etag, err := computeETag(v)
	if err != nil {
		return false
	}

	if ctx.GetHeader("If-None-Match") == etag {
		ctx.Status(http.StatusNotModified)
		return true
	}

	ctx.Header("ETag", etag)
	return false
}
