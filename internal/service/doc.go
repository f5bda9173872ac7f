// Package service implements the application's use cases, coordinating the
// domain model, the stores, the background task machinery, and the cache.
// Services accept narrow collaborator interfaces so tests can substitute
// in-memory fakes.
package service
