package tracing

import (
	"context"
	"strconv"

	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/gin-gonic/gin"
)

// Middleware assigns every request an id, echoes it in the response and logs
// the request as a span
func Middleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(HeaderRequestID); incoming != "" {
			// a client supplied id becomes the parent, never our own id
			ctx = context.WithValue(ctx, parentIDKey, id.RequestID(incoming))
		}

		span, ctx := tracer.Start(ctx, c.Request.Method+" "+routeOf(c))
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(requestIDKey), span.RequestID.String())
		c.Header(HeaderRequestID, span.RequestID.String())

		c.Next()

		span.Tag("http.status", strconv.Itoa(c.Writer.Status()))
		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		}
		tracer.Finish(span, err)
	}
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
