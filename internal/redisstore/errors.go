package redisstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/andy/docket/internal/domain"
)

var transientPrefixes = []string{"LOADING", "BUSY", "TRYAGAIN", "CLUSTERDOWN", "MASTERDOWN", "READONLY"}

func isAuthError(err error) bool {
	var rerr redis.Error
	if !errors.As(err, &rerr) {
		return false
	}
	msg := rerr.Error()
	return strings.HasPrefix(msg, "NOAUTH") || strings.HasPrefix(msg, "WRONGPASS") || strings.HasPrefix(msg, "NOPERM")
}

// classify wraps a go-redis error with its domain category.
func classify(op string, err error) error {
	if isAuthError(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUnauthenticated, err)
	}
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%s: %w: modified concurrently", op, domain.ErrConflict)
	}

	var rerr redis.Error
	if errors.As(err, &rerr) {
		for _, p := range transientPrefixes {
			if strings.HasPrefix(rerr.Error(), p) {
				return fmt.Errorf("%s: %w: %v", op, domain.ErrTransient, err)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, redis.ErrClosed),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
