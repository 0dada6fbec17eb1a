package db

import (
	"database/sql"
	"fmt"

	"github.com/baiirun/tempo/internal/model"
)

// InsertTimeblock persists a new timeblock.
func (db *DB) InsertTimeblock(tb *model.Timeblock) error {
	if !tb.Status.IsValid() {
		return fmt.Errorf("invalid timeblock status: %d", tb.Status)
	}

	_, err := db.Exec(`
		INSERT INTO timeblocks (uuid, status, name, description, day_frequency, duration, start, day_start)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tb.UUID, tb.Status, tb.Name, tb.Desc, tb.DayFrequency.Byte(),
		tb.Duration, tb.Start, tb.DayStart,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timeblock: %w", err)
	}
	return nil
}

// LoadTimeblocks retrieves all timeblocks. Task lists come back empty; the
// caller loads tasks per block.
func (db *DB) LoadTimeblocks() ([]model.Timeblock, error) {
	rows, err := db.Query(`
		SELECT uuid, status, name, description, day_frequency, duration, start, day_start
		FROM timeblocks`)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeblocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []model.Timeblock
	for rows.Next() {
		var tb model.Timeblock
		var desc sql.NullString
		var dayFreq int
		err := rows.Scan(&tb.UUID, &tb.Status, &tb.Name, &desc, &dayFreq,
			&tb.Duration, &tb.Start, &tb.DayStart)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeblock: %w", err)
		}
		tb.Desc = desc.String
		tb.DayFrequency = model.GoalSpecFromByte(byte(dayFreq))
		blocks = append(blocks, tb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeblocks: %w", err)
	}
	return blocks, nil
}

// UpdateTimeblock overwrites a stored timeblock.
func (db *DB) UpdateTimeblock(tb *model.Timeblock) error {
	if !tb.Status.IsValid() {
		return fmt.Errorf("invalid timeblock status: %d", tb.Status)
	}

	result, err := db.Exec(`
		UPDATE timeblocks
		SET status = ?, name = ?, description = ?, day_frequency = ?, duration = ?, start = ?, day_start = ?
		WHERE uuid = ?`,
		tb.Status, tb.Name, tb.Desc, tb.DayFrequency.Byte(),
		tb.Duration, tb.Start, tb.DayStart, tb.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update timeblock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("timeblock not found: %s", tb.UUID)
	}
	return nil
}

// DeleteTimeblock removes a timeblock. Owned tasks and their habit entries
// cascade.
func (db *DB) DeleteTimeblock(uuid string) error {
	result, err := db.Exec(`DELETE FROM timeblocks WHERE uuid = ?`, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete timeblock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("timeblock not found: %s", uuid)
	}
	return nil
}
