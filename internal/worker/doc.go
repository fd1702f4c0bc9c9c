// Package worker implements the eval worker lifecycle and Redis Streams integration.
//
// The worker reads evaluation requests from a Redis stream, resolves an
// evaluator for the requested language, runs the script against the request
// bindings and the stored graph state, and publishes a Result.
//
// Example usage:
//
//	factory, _ := eval.NewFactory(cfg, llmClient, logger)
//	processor := worker.NewProcessor(factory, worker.NewRedisStateStore(redisClient, logger),
//	    cfg.EvalTimeout, worker.NewMetrics(prometheus.DefaultRegisterer), logger)
//
//	w := worker.NewWorker(cfg, redisClient, processor, logger)
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop(ctx)
//
// Requests carrying a min_result are accepted only when the numeric result is
// at least that value. Failed requests are published to "<result stream>.errors".
//
// Health checks, metrics and the list of resolved languages are served by a
// separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8083, redisClient, factory, registry, logger)
//	healthServer.Start()
package worker
