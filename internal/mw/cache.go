package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response came from the cache.
const CacheHeader = "X-Cache"

const cacheTTLKey = "mw.cache_ttl"

// LimitCacheTTL shortens how long Cache keeps the current response. The shortest limit set
// by a handler wins; a limit of zero or less keeps the response out of the cache.
func LimitCacheTTL(c *gin.Context, d time.Duration) {
	if v, ok := c.Get(cacheTTLKey); ok && v.(time.Duration) <= d {
		return
	}
	c.Set(cacheTTLKey, d)
}

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GET requests for the same URI from store for ttl.
// Only 200 responses are stored; clients can bypass the cache with Cache-Control: no-cache.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		bypass := c.GetHeader("Cache-Control") == "no-cache"
		if !bypass {
			if v, found := store.Get(key); found {
				cached := v.(cachedResponse)
				for k, vals := range cached.headers {
					c.Writer.Header()[k] = vals
				}
				c.Writer.Header().Set(CacheHeader, "HIT")
				c.Writer.WriteHeader(cached.status)
				_, _ = c.Writer.Write(cached.body)
				c.Abort()
				return
			}
		}

		c.Writer.Header().Set(CacheHeader, "MISS")
		w := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		entryTTL := ttl
		if v, ok := c.Get(cacheTTLKey); ok && v.(time.Duration) < entryTTL {
			entryTTL = v.(time.Duration)
		}
		if w.Status() == http.StatusOK && entryTTL > 0 {
			headers := w.Header().Clone()
			headers.Del(CacheHeader)
			store.Set(key, cachedResponse{
				status:  w.Status(),
				headers: headers,
				body:    bytes.Clone(w.body.Bytes()),
			}, entryTTL)
		}
	}
}
