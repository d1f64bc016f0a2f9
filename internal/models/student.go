package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Student struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentEntry is the wire form of a student: a two element [id, name] tuple.
type StudentEntry struct {
	ID   uint
	Name string
}

func (e StudentEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ID, e.Name})
}

func (e *StudentEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("student entry: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return fmt.Errorf("student entry id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Name); err != nil {
		return fmt.Errorf("student entry name: %w", err)
	}
	return nil
}
