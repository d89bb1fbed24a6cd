package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and write timestamps every stored record has.
type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Touch stamps UpdatedAt, and CreatedAt on first write.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
