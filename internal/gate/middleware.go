package gate

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// IdentityFunc reports the caller's identity marker for a request. Empty
// string means unauthenticated. The marker is handed over explicitly; the
// gate never reads ambient state.
type IdentityFunc func(c *gin.Context) string

// bufferWriter holds back the downstream response so the gate can decide
// after the chain ran. Nothing reaches the wire until the buffer is replayed.
type bufferWriter struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bufferWriter) WriteHeader(code int) {
	w.status = code
}

func (w *bufferWriter) WriteHeaderNow() {}

func (w *bufferWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// Flush is swallowed: streaming would leak the response before the decision.
func (w *bufferWriter) Flush() {}

func (w *bufferWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *bufferWriter) Size() int {
	return w.body.Len()
}

func (w *bufferWriter) Written() bool {
	return w.status != 0 || w.body.Len() > 0
}

// Middleware binds the gate into a gin chain. Handlers registered after it,
// including the recovery middleware, write into a buffer; once they return
// the gate either replays the buffered response or writes the substitute.
func (g *Gate) Middleware(identity IdentityFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.exempt.Contains(c.Request.URL.Path) {
			c.Next()
			return
		}

		real := c.Writer
		buf := &bufferWriter{ResponseWriter: real}
		c.Writer = buf
		defer func() { c.Writer = real }()

		c.Next()

		status := buf.Status()
		if !g.gated(identity(c), status) {
			real.WriteHeader(status)
			if _, err := real.Write(buf.body.Bytes()); err != nil {
				logger.Error().Err(err).Msg("Failed to replay response")
			}
			return
		}

		sub := g.substitute(status)

		// All-or-nothing replacement: downstream headers are dropped with the
		// body, never filtered selectively.
		header := real.Header()
		for k := range header {
			header.Del(k)
		}
		for k, v := range sub.Header {
			header.Set(k, v)
		}

		real.WriteHeader(sub.Status)
		if _, err := real.Write(sub.Body); err != nil {
			logger.Error().Err(err).Msg("Failed to write substitute response")
		}
	}
}
