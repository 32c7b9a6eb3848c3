package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"psxinstall/internal/services"
	"psxinstall/internal/stage"
)

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id                 string
		kind               string
		stateRaw           string
		discOne            sql.NullString
		discTwo            sql.NullString
		convertMedia       int64
		errorKind          sql.NullString
		errorMessage       sql.NullString
		primaryTotal       int
		primarySucceeded   int
		secondaryTotal     int
		secondarySucceeded int
		filesDeleted       int
		bytesDeleted       int64
		startedRaw         string
		finishedRaw        sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&kind,
		&stateRaw,
		&discOne,
		&discTwo,
		&convertMedia,
		&errorKind,
		&errorMessage,
		&primaryTotal,
		&primarySucceeded,
		&secondaryTotal,
		&secondarySucceeded,
		&filesDeleted,
		&bytesDeleted,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	state, ok := stage.ParseState(stateRaw)
	if !ok {
		return nil, fmt.Errorf("run %s: unknown state %q", id, stateRaw)
	}
	rec := &Record{
		ID:                 id,
		Kind:               Kind(kind),
		State:              state,
		DiscOne:            discOne.String,
		DiscTwo:            discTwo.String,
		ConvertMedia:       convertMedia != 0,
		ErrorKind:          services.Kind(errorKind.String),
		ErrorMessage:       errorMessage.String,
		PrimaryTotal:       primaryTotal,
		PrimarySucceeded:   primarySucceeded,
		SecondaryTotal:     secondaryTotal,
		SecondarySucceeded: secondarySucceeded,
		FilesDeleted:       filesDeleted,
		BytesDeleted:       bytesDeleted,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		rec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			rec.FinishedAt = &finished
		}
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

// timeLayout keeps a fixed fraction width so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
