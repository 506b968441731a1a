// Package shutdown cancels running work on SIGINT or SIGTERM and runs
// cleanup hooks, such as closing the table store, exactly once.
//
//	h := shutdown.NewHandler(5 * time.Second)
//	ctx, stop := h.Context(context.Background())
//	defer stop()
//	h.OnShutdown(func(ctx context.Context) error { return store.Close() })
//	defer h.Shutdown()
package shutdown
