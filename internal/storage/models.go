package storage

import (
	"gorm.io/gorm"
)

// DefaultSlot is the slot holding the expense collection.
const DefaultSlot = "expenses"

// Slot is a named blob. The whole expense collection lives in one slot and is
// overwritten on every save.
type Slot struct {
	gorm.Model
	Name    string `gorm:"uniqueIndex"`
	Payload []byte
}
