package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fablekeep/continuity/internal/story"
)

// Timestamps are stored as TEXT. Writes use RFC 3339 UTC; reads also accept
// SQLite's CURRENT_TIMESTAMP format for rows created by column defaults.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// marshalKeywords serializes a rule keyword set as a JSON array, matching
// the stored representation. Nil and empty both serialize to null so that
// "no keywords" round-trips as NULL.
func marshalKeywords(keywords []string) (sql.NullString, error) {
	if len(keywords) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal keywords: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// unmarshalKeywords parses a stored keyword column. A NULL or empty column
// yields nil; malformed JSON is an error surfaced to the caller rather than
// silently dropped.
func unmarshalKeywords(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(raw.String), &keywords); err != nil {
		return nil, fmt.Errorf("unmarshal keywords: %w", err)
	}
	return keywords, nil
}

// marshalElements serializes an alert's conflicting-element set for the
// conflicting_elements column.
func marshalElements(elems []story.ElementRef) (string, error) {
	b, err := json.Marshal(elems)
	if err != nil {
		return "", fmt.Errorf("marshal conflicting elements: %w", err)
	}
	return string(b), nil
}

func unmarshalElements(raw sql.NullString) ([]story.ElementRef, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var elems []story.ElementRef
	if err := json.Unmarshal([]byte(raw.String), &elems); err != nil {
		return nil, fmt.Errorf("unmarshal conflicting elements: %w", err)
	}
	return elems, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
