package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/metrics"
)

var tracer = otel.Tracer("github.com/repairhub/repairhub-api/services")

// Options configures the services. Zero values fall back to the standard
// logrus logger, time.Now and no store timeout.
type Options struct {
	Logger *logrus.Logger
	// Now is the clock used for date windows and timestamps
	Now func() time.Time
	// Timeout bounds every store operation; exceeding it fails the operation
	Timeout time.Duration
}

// store holds what every service needs to talk to the database
type store struct {
	db      *gorm.DB
	log     *logrus.Logger
	now     func() time.Time
	timeout time.Duration
}

func newStore(db *gorm.DB, opts Options) store {
	s := store{db: db, log: opts.Logger, now: opts.Now, timeout: opts.Timeout}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// inTx runs fn inside one database transaction; any error rolls back every
// write fn made
func (s store) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return s.run(ctx, op, func(db *gorm.DB) error {
		return db.Transaction(fn)
	})
}

// read runs fn without a transaction
func (s store) read(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	return s.run(ctx, op, fn)
}

func (s store) run(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := translate(op, fn(s.db.WithContext(ctx)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrUnavailable) {
			s.log.WithError(err).WithField("op", op).Error("store operation failed")
		}
	}
	return err
}

// find loads the row with the given id into dest, reporting a missing row
// as ErrNotFound for entity
func find(tx *gorm.DB, dest interface{}, entity string, id uint) error {
	if err := tx.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(entity, id)
		}
		return err
	}
	return nil
}

// transitioned logs and counts a status change
func (s store) transitioned(entity string, id uint, from, to string, actor Actor) {
	metrics.RecordTransition(entity, from, to)
	s.log.WithFields(logrus.Fields{
		"entity":     entity,
		"id":         id,
		"from":       from,
		"to":         to,
		"actor_id":   actor.ID,
		"actor_role": actor.Role,
	}).Info("status changed")
}
