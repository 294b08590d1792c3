package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/pkg/logger"
)

// DocumentLocker bloqueo distribuido por documento. No reintenta: si otro proceso tiene el documento,
// la acción falla de inmediato con domain.ErrConflict.
type DocumentLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewDocumentLocker construye el locker. ttl acota cuánto puede durar una acción con el bloqueo tomado.
func NewDocumentLocker(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *DocumentLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentLocker{locker: redislock.New(rdb), ttl: ttl, log: log}
}

// Lock toma lock:movement:<kind>:<id>. La función devuelta libera el bloqueo.
func (l *DocumentLocker) Lock(ctx context.Context, kind entity.Kind, id int64) (func(), error) {
	key := lockKey(kind, id)
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: el documento %d está siendo procesado", domain.ErrConflict, id)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el bloqueo")
		}
	}, nil
}

func lockKey(kind entity.Kind, id int64) string {
	return fmt.Sprintf("lock:movement:%s:%d", strings.ToLower(string(kind)), id)
}
