package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
		{Kind(99), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("stop timer: %w", Conflict("timer already stopped"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestValidationFields(t *testing.T) {
	err := ValidationField("endTime", "endTime must be after startTime")
	err.AddField("endTime", "second")

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, []string{"endTime must be after startTime", "second"}, err.Fields["endTime"])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: time_entries.user_id (2067)")))
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}

func TestFromStore(t *testing.T) {
	assert.Nil(t, FromStore(nil, "task not found"))
	assert.True(t, IsKind(FromStore(gorm.ErrRecordNotFound, "task not found"), KindNotFound))
	assert.True(t, IsKind(FromStore(Authorization("nope"), ""), KindAuthorization))

	err := FromStore(errors.New("db down"), "task not found")
	assert.True(t, IsKind(err, KindInternal))
	assert.ErrorContains(t, err, "db down")
}
