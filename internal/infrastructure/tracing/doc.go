/*
Package tracing gives every API request a prefixed request id and logs the
request, and any nested operations, as spans.

The id travels in the request context, is echoed in the X-Request-ID response
header and is injected into outbound calls (geocoder, forecast, framing probe)
so upstream logs can be correlated.

	tracer := tracing.New(logger, 500*time.Millisecond)
	router.Use(tracing.Middleware(tracer))

	span, ctx := tracer.Start(ctx, "wallpaper.compress")
	err := compress(ctx)
	tracer.Finish(span, err)
*/
package tracing
