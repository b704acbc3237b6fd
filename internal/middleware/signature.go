package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SignatureHeader = "X-Plivo-Signature-V2"
	NonceHeader     = "X-Plivo-Signature-V2-Nonce"
)

// SignV2 computes Plivo's V2 signature: base64(HMAC-SHA256(authToken,
// url+nonce)), where url excludes the query string.
func SignV2(authToken, url, nonce string) string {
	mac := hmac.New(sha256.New, []byte(authToken))
	mac.Write([]byte(url + nonce))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// PlivoSignature rejects webhook deliveries whose V2 signature does not
// match. baseURL is the externally reachable origin; when empty it is
// rebuilt from the request.
func PlivoSignature(authToken, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sig := c.GetHeader(SignatureHeader)
		nonce := c.GetHeader(NonceHeader)
		url := requestURL(c, baseURL)

		want := SignV2(authToken, url, nonce)
		if sig == "" || nonce == "" || !hmac.Equal([]byte(sig), []byte(want)) {
			log.Printf("plivo signature mismatch for %s", url)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func requestURL(c *gin.Context, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + c.Request.URL.Path
}
