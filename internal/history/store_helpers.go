package history

import (
	"database/sql"
	"fmt"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run             Run
		startedAt       string
		finishedAt      sql.NullString
		template        sql.NullString
		status          string
		script          sql.NullString
		background      sql.NullString
		outputPath      sql.NullString
		publishResponse sql.NullString
		errorMessage    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&run.Day,
		&template,
		&status,
		&script,
		&run.AudioSeconds,
		&run.WordCount,
		&run.CardCount,
		&background,
		&outputPath,
		&publishResponse,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	started, err := parseTimeString(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started
	if finishedAt.Valid && finishedAt.String != "" {
		finished, err := parseTimeString(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	run.Status = Status(status)
	run.Template = template.String
	run.Script = script.String
	run.Background = background.String
	run.OutputPath = outputPath.String
	run.PublishResponse = publishResponse.String
	run.ErrorMessage = errorMessage.String
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
