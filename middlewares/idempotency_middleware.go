package middlewares

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"eldertales_api/replay"
	"eldertales_api/tools"
	"eldertales_api/types"

	"cloud.google.com/go/logging"
	"github.com/gin-gonic/gin"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key. The key is scoped to the actor, method and path. A duplicate that
// arrives while the first request still runs gets 409.
func IdempotencyMiddleware(logger tools.Logger, cache replay.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(types.IDEMPOTENCY_KEY_HEADER))
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		cacheKey := strings.Join([]string{ActorId(c), c.Request.Method, c.Request.URL.Path, key}, "|")
		stored, reserved, err := cache.Reserve(c, cacheKey, ttl)
		if err != nil {
			// Serve without replay protection while the cache is down.
			logger.Log(logging.Entry{
				Severity: logging.Warning,
				Payload:  "Idempotency cache unavailable",
				Labels:   map[string]string{"error": err.Error()},
			})
			c.Next()
			return
		}

		if stored != nil {
			c.Header(types.IDEMPOTENCY_REPLAYED_HEADER, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}
		if !reserved {
			tools.LogError(logger, c, fmt.Errorf("%w: a request with this idempotency key is in progress", types.ErrConflict))
			return
		}

		// A handler that panics never reaches the code after c.Next, so the release is deferred.
		completed := false
		defer func() {
			if completed {
				return
			}
			if err := cache.Release(c, cacheKey); err != nil {
				logger.Log(logging.Entry{
					Severity: logging.Warning,
					Payload:  "Error releasing idempotency key",
					Labels:   map[string]string{"error": err.Error()},
				})
			}
		}()

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		err = cache.Complete(c, cacheKey, replay.Response{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}, ttl)
		if err != nil {
			logger.Log(logging.Entry{
				Severity: logging.Warning,
				Payload:  "Error recording idempotent response",
				Labels:   map[string]string{"error": err.Error()},
			})
			return
		}
		completed = true
	}
}
