// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous execution of post and comment
// creation so transaction verification never blocks HTTP request handling.
// Task state is kept in memory and does not survive a restart.
package task
