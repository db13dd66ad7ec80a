// Package service holds the business logic behind the HTTP handlers and
// the payment worker.  Services depend on small interfaces implemented by
// the repository package so they can be exercised with in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log"
)

// BestEffort runs fn and logs any error or panic under name.  The error is
// returned for callers that want to report the outcome, but it is never
// meant to abort the surrounding operation.
func BestEffort(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Printf("best-effort: %s: %v", name, err)
		}
	}()
	if err = fn(ctx); err != nil {
		log.Printf("best-effort: %s failed: %v", name, err)
	}
	return err
}
