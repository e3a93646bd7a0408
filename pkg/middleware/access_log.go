package middleware

import (
	"fmt"
	"time"

	"github.com/edugate/sitecms/pkg/logger"
	"github.com/gin-gonic/gin"
)

// AccessLog writes one Apache combined-format line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Raw(CombinedLine(c, start))
	}
}

// CombinedLine formats a finished request in Apache combined log format.
func CombinedLine(c *gin.Context, start time.Time) string {
	req := c.Request
	size := c.Writer.Size()
	sizeField := "-"
	if size > 0 {
		sizeField = fmt.Sprint(size)
	}
	return fmt.Sprintf("%s - %s [%s] \"%s %s %s\" %d %s \"%s\" \"%s\"",
		c.ClientIP(),
		dash(remoteUser(c)),
		start.Format("02/Jan/2006:15:04:05 -0700"),
		req.Method,
		req.RequestURI,
		req.Proto,
		c.Writer.Status(),
		sizeField,
		dash(req.Referer()),
		dash(req.UserAgent()),
	)
}

func remoteUser(c *gin.Context) string {
	if v, ok := c.Get(ClaimsKey); ok {
		if cm, ok := v.(map[string]interface{}); ok {
			if sub, ok := cm["sub"].(string); ok {
				return sub
			}
		}
	}
	return ""
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
