package queue

import "context"

// Client enqueues embedding jobs for asynchronous processing. When no
// queue is configured the ingest pipeline embeds inline instead.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
