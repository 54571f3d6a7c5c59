package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const auditBodyLimit = 16384

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
	skip bool
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if !r.skip && r.body.Len() < auditBodyLimit {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// AuditMiddleware 记录请求与响应，文件上传与下载只记录元信息
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		reqBody := "<multipart>"
		if !strings.HasPrefix(c.ContentType(), "multipart/") && c.Request.Body != nil {
			raw, _ := io.ReadAll(io.LimitReader(c.Request.Body, auditBodyLimit))
			rest := c.Request.Body
			c.Request.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), rest), Closer: rest}
			reqBody = string(raw)
		}

		rawQuery := c.Request.URL.RawQuery
		decodedQuery, err := url.QueryUnescape(rawQuery)
		if err != nil {
			decodedQuery = rawQuery
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", decodedQuery),
			log.String("req_body", reqBody),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		w.skip = true
		resBody := w.body.String()
		if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
			resBody = "<binary>"
		}
		log.InfoContext(ctx, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.String("res_body", resBody),
		)
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}
