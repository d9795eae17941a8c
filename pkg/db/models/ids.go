package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller left it zero. IDs are minted
// in Go so the same models work on Postgres and sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
