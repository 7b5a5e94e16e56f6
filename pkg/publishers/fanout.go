package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Fanout hands each page change to every publisher that accepts its kind.
type Fanout struct {
	publishers []Publisher
}

// NewFanout drops nil entries from pubs.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp}
}

// Publish sends evt to the publishers that accept evt.Change.Kind and returns
// how many of them delivered it. A publisher filtered out by kind counts as
// neither a delivery nor a failure.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, p := range f.publishers {
		if ka, ok := p.(kindAware); ok && !ka.Accepts(evt.Change.Kind) {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher %q, %s %q: %w", p.Type(), p.ID(), evt.Change.Kind, evt.Change.Key, err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of publishers, filtered or not.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close closes every publisher holding a client connection.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher %q: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
