package hotfolder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/logutil"
)

// Release discards the tracking state of the file it was issued for. It is
// safe to call from any goroutine, more than once, and after the file has
// already been forgotten.
type Release func()

// Subscriber receives settled files.
//
// OnAdded runs on the scanning goroutine; a slow subscriber delays the next
// scan. Returning an error, or panicking, leaves the file unreported so it
// is offered again on the next scan. The handle stays owned by the
// Hotfolder and must not be closed by the subscriber.
type Subscriber interface {
	OnAdded(ctx context.Context, f backends.File, release Release) error
}

// SubscriberFunc adapts a function to the Subscriber interface
type SubscriberFunc func(ctx context.Context, f backends.File, release Release) error

// OnAdded calls fn(ctx, f, release)
func (fn SubscriberFunc) OnAdded(ctx context.Context, f backends.File, release Release) error {
	return fn(ctx, f, release)
}

// Chain calls every subscriber in order and stops at the first error
func Chain(subscribers ...Subscriber) Subscriber {
	return SubscriberFunc(func(ctx context.Context, f backends.File, release Release) error {
		for _, s := range subscribers {
			if err := s.OnAdded(ctx, f, release); err != nil {
				return err
			}
		}
		return nil
	})
}

// MoveTo returns a subscriber that moves every settled file into the
// target directory and then releases it. Files are renamed when target is
// on the same backend and copied then deleted otherwise.
func MoveTo(target backends.File, logger *zap.Logger) Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return SubscriberFunc(func(ctx context.Context, f backends.File, release Release) error {
		if err := target.Mkdirs(ctx); err != nil {
			return fmt.Errorf("failed to create %s: %w", logutil.RedactURI(target.URI()), err)
		}

		dst, err := target.Resolve(ctx, f.Name())
		if err != nil {
			return err
		}
		defer dst.Close()

		err = f.Rename(ctx, dst)
		if errors.Is(err, backends.ErrCrossBackend) {
			err = copyAndDelete(ctx, f, dst)
		}
		if err != nil {
			return fmt.Errorf("failed to move %s: %w", logutil.RedactURI(f.URI()), err)
		}

		logger.Info("Moved settled file",
			logutil.URI("from", f.URI()),
			logutil.URI("to", dst.URI()))
		release()
		return nil
	})
}

func copyAndDelete(ctx context.Context, src, dst backends.File) error {
	isDir, err := src.IsDirectory(ctx)
	if err != nil {
		return err
	}
	if isDir {
		return fmt.Errorf("%w: directory move across backends", backends.ErrNotSupported)
	}
	if err := backends.CopyTo(ctx, src, dst); err != nil {
		return err
	}
	return src.Delete(ctx)
}
