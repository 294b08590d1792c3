package redisstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

// sequenceTTL la clave vive más de un día para cubrir desfases de zona horaria entre instancias.
const sequenceTTL = 48 * time.Hour

// Sequencer consecutivo por tipo de documento y día. El número completo incluye la fecha,
// así que reiniciar el contador cada día no produce duplicados.
type Sequencer struct {
	rdb *redis.Client
}

// NewSequencer construye el secuenciador.
func NewSequencer(rdb *redis.Client) *Sequencer {
	return &Sequencer{rdb: rdb}
}

// Next incrementa y devuelve el consecutivo del día.
func (s *Sequencer) Next(ctx context.Context, kind entity.Kind, day time.Time) (int64, error) {
	key := sequenceKey(kind, day)
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, sequenceTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

func sequenceKey(kind entity.Kind, day time.Time) string {
	return fmt.Sprintf("seq:movement:%s:%s", strings.ToLower(string(kind)), day.Format("20060102"))
}
