package task

import (
	"context"
	"fmt"
)

// ComplexityLevel grades how demanding a task looks from its recorded shape.
type ComplexityLevel string

const (
	ComplexityLow      ComplexityLevel = "LOW"
	ComplexityMedium   ComplexityLevel = "MEDIUM"
	ComplexityHigh     ComplexityLevel = "HIGH"
	ComplexityVeryHigh ComplexityLevel = "VERY_HIGH"
)

// Thresholds for each metric. A metric at or above the medium/high/very-high
// bound pushes the overall level up; the final level is the highest any
// single metric reaches.
const (
	descMedium   = 500
	descHigh     = 1000
	descVeryHigh = 2000

	depsMedium   = 2
	depsHigh     = 5
	depsVeryHigh = 10

	notesMedium   = 200
	notesHigh     = 500
	notesVeryHigh = 1000
)

// ComplexityMetrics are the raw measurements behind an assessment.
type ComplexityMetrics struct {
	DescriptionLength int  `json:"descriptionLength"`
	DependenciesCount int  `json:"dependenciesCount"`
	NotesLength       int  `json:"notesLength"`
	HasNotes          bool `json:"hasNotes"`
}

// ComplexityAssessment is the result of grading one task.
type ComplexityAssessment struct {
	TaskID          string            `json:"taskId"`
	TaskName        string            `json:"taskName"`
	Level           ComplexityLevel   `json:"level"`
	Metrics         ComplexityMetrics `json:"metrics"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// AssessComplexity grades the task with the given id from its description
// length, dependency count, and notes length.
func (s *Store) AssessComplexity(ctx context.Context, id string) (*ComplexityAssessment, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assessing complexity: %w", err)
	}
	return assess(t), nil
}

func assess(t *Task) *ComplexityAssessment {
	m := ComplexityMetrics{
		DescriptionLength: len(t.Description),
		DependenciesCount: len(t.Dependencies),
		NotesLength:       len(t.Notes),
		HasNotes:          t.Notes != "",
	}

	level := ComplexityLow
	raise := func(l ComplexityLevel) {
		if rank(l) > rank(level) {
			level = l
		}
	}
	raise(gradeMetric(m.DescriptionLength, descMedium, descHigh, descVeryHigh))
	raise(gradeMetric(m.DependenciesCount, depsMedium, depsHigh, depsVeryHigh))
	raise(gradeMetric(m.NotesLength, notesMedium, notesHigh, notesVeryHigh))

	a := &ComplexityAssessment{
		TaskID:   t.ID,
		TaskName: t.Name,
		Level:    level,
		Metrics:  m,
	}

	switch level {
	case ComplexityVeryHigh:
		a.Recommendations = append(a.Recommendations,
			"split this task into smaller subtasks before starting")
	case ComplexityHigh:
		a.Recommendations = append(a.Recommendations,
			"consider breaking this task down or writing an implementation guide first")
	}
	if m.DependenciesCount >= depsHigh {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("verify the execution order of the %d prerequisite tasks", m.DependenciesCount))
	}
	if !m.HasNotes && m.DescriptionLength >= descHigh {
		a.Recommendations = append(a.Recommendations,
			"add notes summarizing the approach; the description alone is long")
	}
	return a
}

func gradeMetric(v, medium, high, veryHigh int) ComplexityLevel {
	switch {
	case v >= veryHigh:
		return ComplexityVeryHigh
	case v >= high:
		return ComplexityHigh
	case v >= medium:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func rank(l ComplexityLevel) int {
	switch l {
	case ComplexityVeryHigh:
		return 3
	case ComplexityHigh:
		return 2
	case ComplexityMedium:
		return 1
	default:
		return 0
	}
}
