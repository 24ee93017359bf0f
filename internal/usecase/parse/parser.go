// Package parse extracts a feature row from a free-text description of a
// student. Keyword and pattern matching cover the common phrasings; an
// optional LLM extractor can be layered on top for harder sentences.
package parse

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// Source labels which strategy produced a feature row.
const (
	SourceKeyword = "keyword"
	SourceLLM     = "llm"
)

// Extractor produces a partial feature row from free text. Implementations
// may fail; the service falls back to keyword matching when they do.
type Extractor interface {
	Extract(ctx context.Context, text string) (domain.FeatureRow, error)
}

// Service turns free text into a fully populated feature row. It never
// fails: unmatched fields receive fixed defaults.
type Service struct {
	extractor Extractor // nil for keyword-only operation
	logger    *zap.Logger
}

// New creates a text parsing service. extractor may be nil.
func New(extractor Extractor, logger *zap.Logger) *Service {
	return &Service{extractor: extractor, logger: logger}
}

var (
	agePattern   = regexp.MustCompile(`(\d{1,2})\s*(?:anni|years?\s*old|yo\b)`)
	hoursPattern = regexp.MustCompile(`(\d{1,2})\s*(?:ore|volte|hours?|times)`)
)

// defaults fill every field the text did not mention, so a prediction can
// run on the result without further input.
var defaults = domain.FeatureRow{
	"Age":                            16,
	"Strength_Score":                 75,
	"Endurance_Score":                70,
	"Flexibility_Score":              60,
	"Speed_Agility_Score":            65,
	"BMI":                            22.5,
	"Health_Fitness_Knowledge_Score": 70,
	"Skills_Score":                   75,
	"Attendance_Rate":                95,
	"Overall_PE_Performance_Score":   80,
	"Improvement_Rate":               10,
	"Final_Grade":                    "B",
	"Previous_Semester_PE_Grade":     "B",
	"Grade_Level":                    "11th",
}

// Parse extracts features from text. The second return value names the
// strategy that produced the row. It never returns an error: an LLM
// failure falls back to keyword matching, and keyword matching always
// produces a complete row.
func (s *Service) Parse(ctx context.Context, text string) (domain.FeatureRow, string) {
	if s.extractor != nil {
		row, err := s.extractor.Extract(ctx, text)
		switch {
		case err != nil:
			s.logger.Warn("llm extraction failed, falling back to keywords",
				zap.Error(err),
			)
		case len(row) > 0:
			applyDefaults(row)
			return row, SourceLLM
		}
	}

	row := keywordExtract(text)
	applyDefaults(row)
	return row, SourceKeyword
}

// keywordExtract matches the phrasings the original dataset's descriptions
// use, in Italian and English.
func keywordExtract(text string) domain.FeatureRow {
	text = strings.ToLower(text)
	row := domain.FeatureRow{}

	if m := agePattern.FindStringSubmatch(text); m != nil {
		row["Age"] = atoiMatch(m[1])
	}

	// female terms first: "female" and "donna" would otherwise be
	// shadowed by the male substrings
	switch {
	case containsAny(text, "femmina", "donna", "ragazza", "female", "girl", "woman"):
		row["Gender"] = "Female"
	case containsAny(text, "maschio", "uomo", "ragazzo", "male", "boy", "man"):
		row["Gender"] = "Male"
	default:
		row["Gender"] = "Other"
	}

	// low-motivation phrases contain "motivato"/"motivated", so they are
	// checked first
	switch {
	case containsAny(text, "poca motivazione", "bassa motivazione",
		"poco motivato", "poco motivata", "not motivated", "unmotivated",
		"low motivation"):
		row["Motivation_Level"] = "Low"
	case containsAny(text, "motivato", "motivata", "alta motivazione",
		"motivated", "high motivation"):
		row["Motivation_Level"] = "High"
	default:
		row["Motivation_Level"] = "Medium"
	}

	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		row["Hours_Physical_Activity_Per_Week"] = atoiMatch(m[1])
	} else {
		row["Hours_Physical_Activity_Per_Week"] = 3
	}

	switch {
	case containsAny(text, "partecipa sempre", "molto attiva", "molto attivo",
		"always participates", "very active"):
		row["Class_Participation_Level"] = "High"
	case containsAny(text, "poco partecipe", "rarely participates",
		"not very active"):
		row["Class_Participation_Level"] = "Low"
	default:
		row["Class_Participation_Level"] = "Medium"
	}

	return row
}

func applyDefaults(row domain.FeatureRow) {
	for name, value := range defaults {
		if _, ok := row[name]; !ok {
			row[name] = value
		}
	}
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// atoiMatch converts an already-validated digit group.
func atoiMatch(digits string) int {
	n, _ := strconv.Atoi(digits)
	return n
}
