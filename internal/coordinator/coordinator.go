package coordinator

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/movie"
)

// DefaultWorkers is the number of operations allowed to run at once when no
// WithWorkers option is given.
const DefaultWorkers = 4

// Coordinator mediates between a presentation layer and the movie store.
type Coordinator struct {
	store     datastore.Store
	ui        Dispatcher
	logger    *slog.Logger
	observers registry

	slots chan struct{}
	wg    sync.WaitGroup
	seq   atomic.Uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for operation failures and dropped results.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWorkers bounds how many operations run concurrently. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.slots = make(chan struct{}, n)
		}
	}
}

// New creates a Coordinator that runs operations against store and delivers
// results through ui.
func New(store datastore.Store, ui Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		ui:     ui,
		logger: slog.Default(),
		slots:  make(chan struct{}, DefaultWorkers),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "coordinator")
	return c
}

// Attach registers an observer until the returned detach function is called.
// Detach is idempotent; call it when the consuming view goes away.
func (c *Coordinator) Attach(o Observer) (detach func()) {
	return c.observers.attach(o)
}

// Observers returns the number of attached observers.
func (c *Coordinator) Observers() int {
	return c.observers.count()
}

// Wait blocks until every submitted operation has been handed to the
// interactive context. It does not wait for the interactive context to run it.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Validate is the form-layer check that must pass before Add or Edit is called.
func (c *Coordinator) Validate(fields movie.Fields) error {
	return fields.Validate()
}

// Run submits work to a background worker. The store is opened before work
// runs and closed after it returns. deliver is called exactly once on the
// interactive context with the result; a nil deliver drops the result.
func Run[T any](c *Coordinator, name string, work func(ctx context.Context, store datastore.Store) (T, error), deliver func(T, error)) *Operation {
	return submit(c, name, work, deliver, nil)
}

// ListAll delivers the (id, name) pair of every movie in ascending id order.
func (c *Coordinator) ListAll(deliver func([]movie.Summary, error)) *Operation {
	return submit(c, "list", func(ctx context.Context, store datastore.Store) ([]movie.Summary, error) {
		cursor, err := store.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return readSummaries(cursor)
	}, deliver, nil)
}

// GetDetails delivers the full record for id, or a RecordNotFoundError.
func (c *Coordinator) GetDetails(id int64, deliver func(movie.Record, error)) *Operation {
	return submit(c, "details", func(ctx context.Context, store datastore.Store) (movie.Record, error) {
		cursor, err := store.GetOne(ctx, id)
		if err != nil {
			return movie.Record{}, err
		}
		return readRecord(cursor, id)
	}, deliver, nil)
}

// Add validates fields and inserts a new movie, delivering its id.
// Invalid fields are rejected without touching the store.
func (c *Coordinator) Add(fields movie.Fields, deliver func(int64, error)) *Operation {
	if err := fields.Validate(); err != nil {
		return reject(c, "add", err, deliver)
	}

	return submit(c, "add", func(ctx context.Context, store datastore.Store) (int64, error) {
		return store.Insert(ctx, fields)
	}, deliver, func(int64) {
		c.notify(func(o Observer) { o.ListChanged() })
	})
}

// Edit validates fields and overwrites movie id. It delivers whether a movie
// matched; editing a missing id is a logged no-op, not an error.
func (c *Coordinator) Edit(id int64, fields movie.Fields, deliver func(bool, error)) *Operation {
	if err := fields.Validate(); err != nil {
		return reject(c, "edit", err, deliver)
	}

	return submit(c, "edit", func(ctx context.Context, store datastore.Store) (bool, error) {
		n, err := store.Update(ctx, id, fields)
		if err != nil {
			return false, err
		}
		if n == 0 {
			c.logger.Info("Nothing updated", "error", errors.NewRecordNotFoundError(id))
		}
		return n > 0, nil
	}, deliver, func(found bool) {
		if !found {
			return
		}
		c.notify(func(o Observer) { o.RecordChanged(id) })
		c.notify(func(o Observer) { o.ListChanged() })
	})
}

// Remove deletes movie id and delivers whether a movie matched. On a match,
// observers get RecordDeleted followed by ListChanged.
func (c *Coordinator) Remove(id int64, deliver func(bool, error)) *Operation {
	return submit(c, "remove", func(ctx context.Context, store datastore.Store) (bool, error) {
		n, err := store.Delete(ctx, id)
		if err != nil {
			return false, err
		}
		if n == 0 {
			c.logger.Info("Nothing deleted", "error", errors.NewRecordNotFoundError(id))
		}
		return n > 0, nil
	}, deliver, func(found bool) {
		if !found {
			return
		}
		c.notify(func(o Observer) { o.RecordDeleted(id) })
		c.notify(func(o Observer) { o.ListChanged() })
	})
}

// notify must run on the interactive context.
func (c *Coordinator) notify(fn func(Observer)) {
	for _, o := range c.observers.snapshot() {
		fn(o)
	}
}

func submit[T any](c *Coordinator, name string, work func(context.Context, datastore.Store) (T, error), deliver func(T, error), after func(T)) *Operation {
	op := newOperation(c.seq.Add(1), name)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.slots <- struct{}{}
		op.setState(StateRunning)
		result, err := execute(context.Background(), c.store, work)
		<-c.slots

		op.finish(err)
		if err != nil {
			c.logger.Warn("Operation failed", "op", name, "op_id", op.ID(), "error", err)
		}

		c.ui.Dispatch(func() {
			c.deliver(op, func() {
				if deliver != nil {
					deliver(result, err)
				}
			}, deliver == nil)
			if err == nil && after != nil {
				after(result)
			}
		})
	}()

	return op
}

// reject delivers err without running anything in the background.
func reject[T any](c *Coordinator, name string, err error, deliver func(T, error)) *Operation {
	op := newOperation(c.seq.Add(1), name)
	op.finish(err)
	c.logger.Debug("Operation rejected", "op", name, "op_id", op.ID(), "error", err)

	c.ui.Dispatch(func() {
		c.deliver(op, func() {
			if deliver != nil {
				var zero T
				deliver(zero, err)
			}
		}, deliver == nil)
	})
	return op
}

func (c *Coordinator) deliver(op *Operation, fn func(), dropped bool) {
	if dropped {
		c.logger.Debug("Dropping result with no receiver", "op", op.Name(), "op_id", op.ID())
	}
	defer op.markDelivered()
	fn()
}

func execute[T any](ctx context.Context, store datastore.Store, work func(context.Context, datastore.Store) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()

	if err := store.Open(ctx); err != nil {
		return result, err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = stdErrors.Join(err, closeErr)
		}
	}()

	return work(ctx, store)
}

func readSummaries(cursor *datastore.Cursor) (summaries []movie.Summary, err error) {
	defer func() {
		err = stdErrors.Join(err, cursor.Close())
	}()

	summaries = []movie.Summary{}
	for {
		ok, err := cursor.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return summaries, nil
		}
		id, err := cursor.ID()
		if err != nil {
			return nil, err
		}
		name, err := cursor.String(movie.ColumnName)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, movie.Summary{ID: id, Name: name})
	}
}

func readRecord(cursor *datastore.Cursor, id int64) (rec movie.Record, err error) {
	defer func() {
		err = stdErrors.Join(err, cursor.Close())
	}()

	ok, err := cursor.MoveToFirst()
	if err != nil {
		return movie.Record{}, err
	}
	if !ok {
		return movie.Record{}, errors.NewRecordNotFoundError(id)
	}
	return cursor.Record()
}
