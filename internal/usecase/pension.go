package usecase

import (
	"fmt"
	"math"
	"time"

	"ahv-copilot/internal/domain"
)

// Transitional generation birth years under the AHV 21 reform. Women born
// in this window get either a favorable reduction rate on early withdrawal
// or a lifelong pension supplement at the reference age.
const (
	transitionalGenerationFrom = 1961
	transitionalGenerationTo   = 1969
)

const reductionInfoURL = "https://www.eak.admin.ch/eak/fr/home/dokumentation/pensionierung/reform-ahv21/kuerzungssaetze-bei-vorbezug.html"

// ErrNotTransitionalGeneration reports a birth year outside 1961-1969.
var ErrNotTransitionalGeneration = fmt.Errorf("birth year outside transitional generation (%d-%d), see %s",
	transitionalGenerationFrom, transitionalGenerationTo, reductionInfoURL)

// ErrInvalidAnticipation reports an early-withdrawal span that rounds
// outside the 1-3 year window the reduction table covers.
var ErrInvalidAnticipation = fmt.Errorf("anticipation outside 1-3 years, see %s", reductionInfoURL)

// referenceAgeMonths maps birth year to the reference retirement age in
// months. The reference age ramps up quarter-yearly for 1961-1963 and is
// 65 from 1964 on.
var referenceAgeMonths = map[int]int{
	1961: 64*12 + 3,
	1962: 64*12 + 6,
	1963: 64*12 + 9,
	1964: 65 * 12,
	1965: 65 * 12,
	1966: 65 * 12,
	1967: 65 * 12,
	1968: 65 * 12,
	1969: 65 * 12,
}

// supplementPercent maps birth year to the share of the base supplement
// paid when retiring at or after the reference age.
var supplementPercent = map[int]int{
	1961: 25,
	1962: 50,
	1963: 75,
	1964: 100,
	1965: 100,
	1966: 81,
	1967: 63,
	1968: 44,
	1969: 25,
}

// incomeBrackets holds the average-annual-income thresholds that place a
// person into bracket 1, 2 or 3. The thresholds are four and five times the
// minimum annual pension and move with the pension index, so they are keyed
// by the calendar year of retirement. Years before the first entry use the
// first, years after the last use the last.
var incomeBrackets = map[int]struct{ low, high float64 }{
	2024: {58_800, 73_500},
	2025: {60_480, 75_600},
}

const (
	firstBracketYear = 2024
	lastBracketYear  = 2025
)

// baseSupplement is the monthly supplement in CHF per income bracket.
var baseSupplement = map[int]float64{
	1: 160,
	2: 100,
	3: 50,
}

// reductionRates maps anticipation years (1-3) and income bracket (1-3) to
// the favorable reduction percentage for the transitional generation.
var reductionRates = map[int]map[int]float64{
	1: {1: 0.0, 2: 2.5, 3: 3.5},
	2: {1: 2.0, 2: 4.5, 3: 6.5},
	3: {1: 3.0, 2: 6.5, 3: 10.5},
}

// EarlyRetirementInput describes one reduction-rate/supplement request.
type EarlyRetirementInput struct {
	DateOfBirth         time.Time
	RetirementDate      time.Time
	AverageAnnualIncome float64
}

// EarlyRetirementResult is either a reduction rate (early withdrawal) or a
// monthly supplement (retirement at or after the reference age), never both.
type EarlyRetirementResult struct {
	// Supplement is the monthly pension supplement in CHF. Set when the
	// person retires at or after their reference age.
	Supplement float64
	// ReductionRate is the favorable reduction percentage. Set when the
	// person withdraws the pension early.
	ReductionRate float64
	// Early reports which of the two fields is meaningful.
	Early bool

	IncomeBracket      int
	ReferenceAgeMonths int
}

// CalculateEarlyRetirement computes the AHV 21 transitional-generation
// reduction rate or pension supplement.
func CalculateEarlyRetirement(in EarlyRetirementInput) (EarlyRetirementResult, error) {
	birthYear := in.DateOfBirth.Year()
	if birthYear < transitionalGenerationFrom || birthYear > transitionalGenerationTo {
		return EarlyRetirementResult{}, ErrNotTransitionalGeneration
	}
	if in.AverageAnnualIncome < 0 {
		return EarlyRetirementResult{}, fmt.Errorf("average annual income must not be negative")
	}

	refMonths := referenceAgeMonths[birthYear]
	ageMonths := monthsBetween(in.DateOfBirth, in.RetirementDate)
	bracket := incomeBracket(in.AverageAnnualIncome, in.RetirementDate.Year())

	result := EarlyRetirementResult{
		IncomeBracket:      bracket,
		ReferenceAgeMonths: refMonths,
	}

	if ageMonths >= refMonths {
		percent := supplementPercent[birthYear]
		result.Supplement = baseSupplement[bracket] * float64(percent) / 100
		return result, nil
	}

	anticipationYears := int(math.Round(float64(refMonths-ageMonths) / 12))
	rates, ok := reductionRates[anticipationYears]
	if !ok {
		return EarlyRetirementResult{}, ErrInvalidAnticipation
	}
	result.Early = true
	result.ReductionRate = rates[bracket]
	return result, nil
}

// FormatEarlyRetirement renders the result as the localized sentence the
// chat layer streams back.
func FormatEarlyRetirement(result EarlyRetirementResult, lang domain.Language) string {
	type texts struct{ supplement, reduction string }
	byLang := map[domain.Language]texts{
		domain.LanguageGerman: {
			supplement: "Ihr Rentenzuschlag beträgt %.2f CHF pro Monat.",
			reduction:  "Ihr Kürzungssatz beträgt %.1f%%.",
		},
		domain.LanguageFrench: {
			supplement: "Votre supplément de rente s'élève à %.2f CHF par mois.",
			reduction:  "Votre taux de réduction est de %.1f%%.",
		},
		domain.LanguageItalian: {
			supplement: "Il suo supplemento di rendita ammonta a %.2f CHF al mese.",
			reduction:  "Il suo tasso di riduzione è del %.1f%%.",
		},
	}
	t, ok := byLang[lang]
	if !ok {
		t = byLang[domain.DefaultLanguage]
	}
	if result.Early {
		return fmt.Sprintf(t.reduction, result.ReductionRate)
	}
	return fmt.Sprintf(t.supplement, result.Supplement)
}

// incomeBracket places the income into bracket 1-3 under the thresholds in
// force for the retirement year.
func incomeBracket(income float64, retirementYear int) int {
	year := retirementYear
	if year < firstBracketYear {
		year = firstBracketYear
	}
	if year > lastBracketYear {
		year = lastBracketYear
	}
	b := incomeBrackets[year]
	switch {
	case income <= b.low:
		return 1
	case income <= b.high:
		return 2
	default:
		return 3
	}
}

// monthsBetween counts whole calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
