package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fundscope/pkg/logger"
	"github.com/wonny/fundscope/pkg/redis"
)

// maxCachedRequestBody caps POST bodies considered for caching
const maxCachedRequestBody = 1 << 20

// cacheRecorder tees a successful response into a buffer
type cacheRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *cacheRecorder) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *cacheRecorder) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// responseCacheMiddleware caches 200 analytics responses in Redis.
// ⭐ SSOT: 키에 데이터셋 revision + profile hash 포함 (업로드/삭제 시 자동 무효화)
func responseCacheMiddleware(cache *redis.Cache, revision func() uint64, profileHash string, ttl time.Duration, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cache.Enabled() || ttl <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			query := r.URL.RawQuery
			if r.Method == http.MethodPost {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxCachedRequestBody+1))
				if err != nil || len(body) > maxCachedRequestBody {
					// 큰 본문은 캐시하지 않음
					r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
					next.ServeHTTP(w, r)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				sum := sha256.Sum256(body)
				query = hex.EncodeToString(sum[:])
			}

			// 계산 시작 시점의 revision으로 조회/저장 (계산 중 교체되면 이전 키로만 남음)
			key := redis.ResponseKey(revision(), profileHash, r.URL.Path, query)

			if data, found, err := cache.GetRaw(r.Context(), key); err == nil && found {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(data)
				return
			} else if err != nil {
				log.WithError(err).Warn("Response cache lookup failed")
			}

			w.Header().Set("X-Cache", "MISS")
			rec := &cacheRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK {
				return
			}
			if err := cache.SetRaw(r.Context(), key, rec.buf.Bytes(), ttl); err != nil {
				log.WithError(err).Warn("Response cache store failed")
			}
		})
	}
}
