/*
Package observability turns the engine's lifecycle hooks into Prometheus
metrics and structured log lines.

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
	engine, _ := murmur.New(graph, murmur.WithLifecycleHooks(hooks))
*/
package observability
