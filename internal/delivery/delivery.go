// Package delivery defines the long-running entry points started by the fx applications.
package delivery

import "context"

// Delivery is a blocking server started by startServer.
type Delivery interface {
	Serve(ctx context.Context) error
}
