package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

func TestPgErrorCodes(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}
	check := &pgconn.PgError{Code: "23514"}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isUniqueViolation(fk))
	assert.True(t, isForeignKeyViolation(fk))
	assert.True(t, isCheckViolation(check))
	assert.False(t, isCheckViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("timeout")))
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	if v := nullIfEmpty("abc"); assert.NotNil(t, v) {
		assert.Equal(t, "abc", *v)
	}
}

func TestStampArgs(t *testing.T) {
	assert.Nil(t, stampArgs(nil).stamp())

	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	in := &entity.Stamp{UserID: 4, At: at, Notes: "ok"}
	assert.Equal(t, in, stampArgs(in).stamp())

	// Sin notas en la fila el sello sigue existiendo.
	uid := int64(9)
	assert.Equal(t, &entity.Stamp{UserID: 9, At: at}, nullableStamp{userID: &uid, at: &at}.stamp())
}
