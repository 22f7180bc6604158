// Package metric exports streetsearch metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	pc := metric.NewPrometheusCollector(reg)
//	eng, _ := streetsearch.New(store, streetsearch.WithMetricsCollector(pc))
//	http.Handle("/metrics", metric.Handler(reg))
package metric
