/*
Package monitoring provides Prometheus metrics for the shell backend.

Each Metrics value owns its own registry, so tests can build as many as they
need without colliding on the global default registry.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.HistoryEntries.Set(3)
	metrics.RecordGesture("resolved_drawer", "open_drawer")
*/
package monitoring
