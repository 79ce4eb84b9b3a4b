package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID     = "X-Request-ID"
	contextKeyRequestID = "request_id"
)

// requestID は X-Request-ID を引き継ぎ、なければ（または UUID でなければ）新しく発行します。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(headerRequestID))
		if err != nil {
			id = uuid.New()
		}
		rid := id.String()
		c.Set(contextKeyRequestID, rid)
		c.Header(headerRequestID, rid)
		c.Next()
	}
}

// accessLogFormat は gin のアクセスログにリクエストIDを含めます。
func accessLogFormat(p gin.LogFormatterParams) string {
	rid, _ := p.Keys[contextKeyRequestID].(string)
	return fmt.Sprintf("%s [ACCESS] %s %3d %s %s %q %s %s\n",
		p.TimeStamp.Format(time.RFC3339),
		rid,
		p.StatusCode,
		p.Latency.Round(time.Microsecond),
		p.Method,
		p.Path,
		p.ClientIP,
		p.ErrorMessage,
	)
}
