package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mindlabs/gomarket/pkg/receipts"
)

const requestIDHeader = "X-Request-ID"

// captureWriter buffers the response body so a receipt can be stored
// once the handler chain completes.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// idempotency replays stored receipts for mutating requests that carry
// a request id. Requests without one get a server-assigned id echoed
// back, but only explicit client ids are durable across retries.
func (s *Server) idempotency() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || s.receipts == nil {
			c.Next()
			return
		}

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			c.Header(requestIDHeader, uuid.NewString())
			c.Next()
			return
		}
		c.Header(requestIDHeader, id)

		if r, ok, err := s.receipts.Get(id); err != nil {
			log.Warnf("receipt lookup failed for %s: %v", id, err)
		} else if ok {
			c.Data(r.Status, "application/json", r.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// Do not pin transient failures; the client should retry those.
		if w.Status() >= http.StatusInternalServerError {
			return
		}
		rec := receipts.Receipt{Status: w.Status(), Body: append([]byte(nil), w.body.Bytes()...)}
		if err := s.receipts.Put(id, rec); err != nil {
			log.Warnf("receipt store failed for %s: %v", id, err)
		}
	}
}
