// Package metrics exports materialization activity as Prometheus metrics.
//
// A Collector is installed as materialize hooks and, optionally, as a horizon
// result callback:
//
//	c := metrics.NewCollector("visits", nil)
//	m := materialize.New(store, materialize.WithHooks(c))
//	r := horizon.New(m, store, sched, plans, horizon.OnResult(c.ObserveHorizon))
package metrics
