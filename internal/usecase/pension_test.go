package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/usecase"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateEarlyRetirementRejectsBirthYearOutsideWindow(t *testing.T) {
	for _, year := range []int{1960, 1970} {
		_, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
			DateOfBirth:    date(year, 6, 1),
			RetirementDate: date(year+64, 6, 1),
		})
		assert.ErrorIs(t, err, usecase.ErrNotTransitionalGeneration, "birth year %d", year)
	}
}

func TestCalculateEarlyRetirementSupplementAtReferenceAge(t *testing.T) {
	tests := []struct {
		birthYear  int
		refMonths  int
		supplement float64 // bracket 1 (low income)
	}{
		{1961, 64*12 + 3, 40},  // 25% of 160
		{1962, 64*12 + 6, 80},  // 50% of 160
		{1963, 64*12 + 9, 120}, // 75% of 160
		{1964, 65 * 12, 160},   // 100% of 160
		{1969, 65 * 12, 40},    // 25% of 160
	}
	for _, tt := range tests {
		result, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
			DateOfBirth:         date(tt.birthYear, 1, 1),
			RetirementDate:      date(tt.birthYear, 1, 1).AddDate(0, tt.refMonths, 0),
			AverageAnnualIncome: 50_000,
		})
		assert.NoError(t, err, "birth year %d", tt.birthYear)
		assert.False(t, result.Early)
		assert.Equal(t, tt.refMonths, result.ReferenceAgeMonths)
		assert.Equal(t, 1, result.IncomeBracket)
		assert.Equal(t, tt.supplement, result.Supplement, "birth year %d", tt.birthYear)
	}
}

func TestCalculateEarlyRetirementReductionMatrix(t *testing.T) {
	tests := []struct {
		anticipationYears int
		income            float64
		wantBracket       int
		wantRate          float64
	}{
		{1, 50_000, 1, 0.0},
		{1, 70_000, 2, 2.5},
		{1, 90_000, 3, 3.5},
		{2, 50_000, 1, 2.0},
		{2, 70_000, 2, 4.5},
		{2, 90_000, 3, 6.5},
		{3, 50_000, 1, 3.0},
		{3, 70_000, 2, 6.5},
		{3, 90_000, 3, 10.5},
	}
	// Born 1964: reference age 65, retiring in 2026 or later keeps the
	// latest bracket thresholds.
	birth := date(1964, 1, 1)
	for _, tt := range tests {
		result, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
			DateOfBirth:         birth,
			RetirementDate:      birth.AddDate(65-tt.anticipationYears, 0, 0),
			AverageAnnualIncome: tt.income,
		})
		assert.NoError(t, err)
		assert.True(t, result.Early)
		assert.Equal(t, tt.wantBracket, result.IncomeBracket,
			"anticipation %d income %.0f", tt.anticipationYears, tt.income)
		assert.Equal(t, tt.wantRate, result.ReductionRate,
			"anticipation %d income %.0f", tt.anticipationYears, tt.income)
	}
}

func TestCalculateEarlyRetirementRejectsTooLongAnticipation(t *testing.T) {
	birth := date(1964, 1, 1)
	_, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
		DateOfBirth:         birth,
		RetirementDate:      birth.AddDate(60, 0, 0),
		AverageAnnualIncome: 50_000,
	})
	assert.ErrorIs(t, err, usecase.ErrInvalidAnticipation)
}

func TestCalculateEarlyRetirementRejectsNegativeIncome(t *testing.T) {
	birth := date(1964, 1, 1)
	_, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
		DateOfBirth:         birth,
		RetirementDate:      birth.AddDate(65, 0, 0),
		AverageAnnualIncome: -1,
	})
	assert.Error(t, err)
}

func TestCalculateEarlyRetirementBracketThresholdsMoveWithYear(t *testing.T) {
	// 59'000 is above the 2024 bracket-1 ceiling (58'800) but below the
	// 2025 one (60'480).
	birth1961 := date(1961, 1, 1) // reference age reached during 2025
	result2025, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
		DateOfBirth:         birth1961,
		RetirementDate:      date(2025, 4, 1),
		AverageAnnualIncome: 59_000,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, result2025.IncomeBracket)

	result2024, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
		DateOfBirth:         birth1961,
		RetirementDate:      date(2024, 4, 1),
		AverageAnnualIncome: 59_000,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, result2024.IncomeBracket)
}

func TestFormatEarlyRetirementLocalized(t *testing.T) {
	early := usecase.EarlyRetirementResult{Early: true, ReductionRate: 2.5}
	assert.Equal(t, "Ihr Kürzungssatz beträgt 2.5%.",
		usecase.FormatEarlyRetirement(early, domain.LanguageGerman))
	assert.Equal(t, "Votre taux de réduction est de 2.5%.",
		usecase.FormatEarlyRetirement(early, domain.LanguageFrench))

	supplement := usecase.EarlyRetirementResult{Supplement: 120}
	assert.Equal(t, "Il suo supplemento di rendita ammonta a 120.00 CHF al mese.",
		usecase.FormatEarlyRetirement(supplement, domain.LanguageItalian))
}
