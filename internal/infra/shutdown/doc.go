// Package shutdown coordinates graceful process termination.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	ctx, stop := h.Context(context.Background())
//	defer stop()
//	h.OnShutdown("store", store.Close)
//	... run until ctx is done ...
//	err := h.Shutdown()
package shutdown
