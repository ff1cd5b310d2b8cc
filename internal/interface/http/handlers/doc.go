// Package handlers contains the reusable pieces of the HTTP interface:
// health checks and generic middleware.
//
// Every snapshot store backend exposes Ping, so readiness is wired as
//
//	checker := handlers.NewCompositeHealthChecker(version)
//	checker.AddCheck("store", handlers.PingCheck(store))
//
// and served from /health and /ready.
package handlers
