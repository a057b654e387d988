package ledger

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
)

// Cursor pins a position in the (created_at DESC, id DESC) listing order.
// It encodes the last-seen entry's sort key rather than a row offset, so a
// page boundary stays put while concurrent inserts land above it.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Encode serializes the cursor into an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Cursor has no unmarshalable fields; this cannot happen.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by Encode. A malformed token is a
// client error, not a server one.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", entry.ErrValidation)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", entry.ErrValidation)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return Cursor{}, fmt.Errorf("%w: incomplete cursor", entry.ErrValidation)
	}
	return c, nil
}
