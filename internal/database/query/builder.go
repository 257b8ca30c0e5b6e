// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

// Package query provides SQL query building utilities for the database
// package. It reduces code duplication and provides type-safe construction
// of parameterized WHERE clauses.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddDateRange(from, to)
//	wb.AddTopicSearch("standup")
//	whereClause, args := wb.Build()
//	// WHERE start_time >= ? AND start_time <= ? AND topic ILIKE ?
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments.
// Useful for custom conditions not covered by helper methods.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddDateRange adds start and/or end filters on start_time.
// Nil dates are skipped, allowing open-ended ranges.
func (wb *WhereBuilder) AddDateRange(from, to *time.Time) *WhereBuilder {
	if from != nil {
		wb.clauses = append(wb.clauses, "start_time >= ?")
		wb.args = append(wb.args, *from)
	}
	if to != nil {
		wb.clauses = append(wb.clauses, "start_time <= ?")
		wb.args = append(wb.args, *to)
	}
	return wb
}

// AddTopicSearch adds a case-insensitive substring match on topic.
// An empty term is skipped.
func (wb *WhereBuilder) AddTopicSearch(term string) *WhereBuilder {
	if term != "" {
		wb.clauses = append(wb.clauses, `topic ILIKE ? ESCAPE '\'`)
		wb.args = append(wb.args, "%"+escapeLike(term)+"%")
	}
	return wb
}

// AddUUIDs adds a meeting UUID filter using an IN clause.
// Generates "uuid IN (?, ?, ...)"; an empty slice is skipped.
func (wb *WhereBuilder) AddUUIDs(uuids []string) *WhereBuilder {
	if len(uuids) > 0 {
		placeholders := make([]string, len(uuids))
		for i, u := range uuids {
			placeholders[i] = "?"
			wb.args = append(wb.args, u)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("uuid IN (%s)", strings.Join(placeholders, ", ")))
	}
	return wb
}

// AddNames adds a participant name filter using an IN clause.
// Generates "name IN (?, ?, ...)"; an empty slice is skipped.
func (wb *WhereBuilder) AddNames(names []string) *WhereBuilder {
	if len(names) > 0 {
		placeholders := make([]string, len(names))
		for i, name := range names {
			placeholders[i] = "?"
			wb.args = append(wb.args, name)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("name IN (%s)", strings.Join(placeholders, ", ")))
	}
	return wb
}

// escapeLike escapes LIKE wildcards in a user-supplied search term so the
// term matches literally.
func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with a "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
