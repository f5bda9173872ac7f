// Package api contains the HTTP handlers for the forum's public surface:
// asynchronous post and comment submission, task status polling, and the
// read endpoints. Handlers translate between the JSON wire format and the
// service layer and never reach the stores directly.
package api
