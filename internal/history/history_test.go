package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage_StandardForm(t *testing.T) {
	t.Parallel()

	op, name, id := ParseMessage("Add new task: fix the parser (4f1c2d3e-9a00-4c21-b1ff-0d9aa1f20b11)")
	assert.Equal(t, "Add new task", op)
	assert.Equal(t, "fix the parser", name)
	assert.Equal(t, "4f1c2d3e-9a00-4c21-b1ff-0d9aa1f20b11", id)
}

func TestParseMessage_WithTimestampPrefix(t *testing.T) {
	t.Parallel()

	op, name, id := ParseMessage("[2026-08-29 10:15:00] Delete task: old chore (a1b2c3d4e5f6)")
	assert.Equal(t, "Delete task", op)
	assert.Equal(t, "old chore", name)
	assert.Equal(t, "a1b2c3d4e5f6", id)
}

func TestParseMessage_NonStandardMessages(t *testing.T) {
	t.Parallel()

	cases := []string{
		"Clear all tasks",
		"Archive tasks",
		"Batch reconcile (selective): 3 new tasks",
		"",
	}
	for _, msg := range cases {
		op, name, id := ParseMessage(msg)
		assert.Empty(t, op, "message %q", msg)
		assert.Empty(t, name, "message %q", msg)
		assert.Empty(t, id, "message %q", msg)
	}
}

func TestParseMessage_ShortIDNotMatched(t *testing.T) {
	t.Parallel()

	// Parenthesized text shorter than a plausible id is not treated as one.
	op, _, _ := ParseMessage("Update task: rename (v2)")
	assert.Empty(t, op)
}

func TestEntryMatches_Filters(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	e := Entry{
		Timestamp: ts,
		Message:   "Delete task: old chore (4f1c2d3e-9a00-4c21-b1ff-0d9aa1f20b11)",
	}

	assert.True(t, e.Matches(Filter{}))
	assert.True(t, e.Matches(Filter{TaskID: "4f1c2d3e-9a00-4c21-b1ff-0d9aa1f20b11"}))
	assert.False(t, e.Matches(Filter{TaskID: "other-id"}))
	assert.True(t, e.Matches(Filter{Operation: "DELETE"}), "operation match is case-insensitive")
	assert.False(t, e.Matches(Filter{Operation: "archive"}))
	assert.True(t, e.Matches(Filter{Since: ts.Add(-time.Hour)}))
	assert.False(t, e.Matches(Filter{Since: ts.Add(time.Hour)}))
}

func TestParseLogLine(t *testing.T) {
	t.Parallel()

	line := "a1b2c3d\t2026-08-29T10:15:00+02:00\tAdd new task: fix parser (4f1c2d3e-9a00-4c21-b1ff-0d9aa1f20b11)"
	e, ok := parseLogLine(line)
	require.True(t, ok)
	assert.Equal(t, "a1b2c3d", e.Revision)
	assert.Equal(t, 2026, e.Timestamp.Year())
	assert.Equal(t, "Add new task", e.Operation)
	assert.Equal(t, "fix parser", e.TaskName)
	assert.Equal(t, "4f1c2d3e-9a00-4c21-b1ff-0d9aa1f20b11", e.TaskID)
}

func TestParseLogLine_Invalid(t *testing.T) {
	t.Parallel()

	_, ok := parseLogLine("not a log line")
	assert.False(t, ok)

	// A bad date yields a zero timestamp, not a rejection.
	e, ok := parseLogLine("abc\tnot-a-date\tClear all tasks")
	require.True(t, ok)
	assert.True(t, e.Timestamp.IsZero())
	assert.Equal(t, "Clear all tasks", e.Message)
}
