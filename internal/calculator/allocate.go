// Package calculator implements the pure expense allocation and settlement
// arithmetic. It performs no I/O: callers hand in loaded aggregates and
// persist whatever comes back.
package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"paymate/internal/models"
)

var (
	// ErrEmptyParticipants is returned when an allocation is requested
	// with no participants.
	ErrEmptyParticipants = errors.New("must have at least one participant")

	// ErrInvalidSplitParameters is returned for malformed or
	// inconsistent strategy inputs: length mismatches, non-positive
	// totals, percentages not summing to 100, and the like.
	ErrInvalidSplitParameters = errors.New("invalid split parameters")
)

// percentTolerance is how far the percentage sum may drift from 100
// before the input is rejected.
var percentTolerance = decimal.New(1, -6)

var hundred = decimal.NewFromInt(100)

// Split is the closed set of splitting strategies. Each variant carries
// only the parameters its strategy needs, so a percentage list can never
// be combined with an equal split.
type Split interface {
	// Type reports the strategy for recording on the expense.
	Type() models.SplitType

	split()
}

// EqualSplit divides the total evenly, spreading leftover cents one each
// over the first participants in input order.
type EqualSplit struct{}

// PercentageSplit divides the total by per-participant percentages that
// must sum to 100.
type PercentageSplit struct {
	Percentages []decimal.Decimal
}

// ExactAmountSplit uses caller-provided amounts that must sum exactly to
// the total.
type ExactAmountSplit struct {
	Amounts []decimal.Decimal
}

// SharesSplit divides the total proportionally to positive integer share
// counts.
type SharesSplit struct {
	Shares []int64
}

func (EqualSplit) Type() models.SplitType       { return models.SplitEqual }
func (PercentageSplit) Type() models.SplitType  { return models.SplitPercentage }
func (ExactAmountSplit) Type() models.SplitType { return models.SplitExactAmount }
func (SharesSplit) Type() models.SplitType      { return models.SplitShares }

func (EqualSplit) split()       {}
func (PercentageSplit) split()  {}
func (ExactAmountSplit) split() {}
func (SharesSplit) split()      {}

// Allocation is one participant's computed share of an expense total.
// Percentage and Shares echo the strategy input for audit and display.
type Allocation struct {
	UserID     string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Shares     int64
}

// Allocate computes each participant's owed amount for the given total and
// strategy. The returned amounts always sum to exactly the total: whichever
// strategy is used, rounding leftovers are absorbed deterministically
// rather than dropped. Order of the result matches participantIDs.
func Allocate(total decimal.Decimal, participantIDs []string, split Split) ([]Allocation, error) {
	if len(participantIDs) == 0 {
		return nil, ErrEmptyParticipants
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: total must be greater than 0, got %s", ErrInvalidSplitParameters, total)
	}
	if !total.Equal(total.Round(2)) {
		return nil, fmt.Errorf("%w: total %s has more than 2 decimal places", ErrInvalidSplitParameters, total)
	}

	switch s := split.(type) {
	case EqualSplit:
		return allocateEqual(total, participantIDs), nil
	case PercentageSplit:
		return allocatePercentage(total, participantIDs, s.Percentages)
	case ExactAmountSplit:
		return allocateExact(total, participantIDs, s.Amounts)
	case SharesSplit:
		return allocateShares(total, participantIDs, s.Shares)
	default:
		return nil, fmt.Errorf("%w: unknown split strategy %T", ErrInvalidSplitParameters, split)
	}
}

// allocateEqual splits the total in whole cents. Everyone gets the floor
// share; the remaining r cents go one each to the first r participants, so
// equal splits feel fair instead of dumping the remainder on one person.
func allocateEqual(total decimal.Decimal, participantIDs []string) []Allocation {
	n := int64(len(participantIDs))
	cents := total.Shift(2).IntPart()
	base := cents / n
	remainder := cents % n

	allocations := make([]Allocation, len(participantIDs))
	for i, userID := range participantIDs {
		share := base
		if int64(i) < remainder {
			share++
		}
		allocations[i] = Allocation{
			UserID: userID,
			Amount: decimal.New(share, -2),
		}
	}
	return allocations
}

// allocatePercentage rounds every share but the last to the cent, then
// gives the last participant the exact remainder so rounding drift can
// never break conservation.
func allocatePercentage(total decimal.Decimal, participantIDs []string, percentages []decimal.Decimal) ([]Allocation, error) {
	if len(percentages) != len(participantIDs) {
		return nil, fmt.Errorf("%w: %d percentages for %d participants",
			ErrInvalidSplitParameters, len(percentages), len(participantIDs))
	}

	sum := decimal.Zero
	for _, p := range percentages {
		if p.IsNegative() {
			return nil, fmt.Errorf("%w: percentage %s is negative", ErrInvalidSplitParameters, p)
		}
		sum = sum.Add(p)
	}
	if sum.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return nil, fmt.Errorf("%w: percentages sum to %s, want 100", ErrInvalidSplitParameters, sum)
	}

	allocations := make([]Allocation, len(participantIDs))
	allocated := decimal.Zero
	for i, userID := range participantIDs {
		var amount decimal.Decimal
		if i == len(participantIDs)-1 {
			amount = total.Sub(allocated)
		} else {
			amount = total.Mul(percentages[i]).Div(hundred).Round(2)
		}
		allocated = allocated.Add(amount)
		allocations[i] = Allocation{
			UserID:     userID,
			Amount:     amount,
			Percentage: percentages[i],
		}
	}
	if last := allocations[len(allocations)-1].Amount; last.IsNegative() {
		return nil, fmt.Errorf("%w: rounding left a negative remainder %s", ErrInvalidSplitParameters, last)
	}
	return allocations, nil
}

// allocateExact accepts caller-provided amounts only when they already sum
// exactly to the total; a mismatch is an error, never silently adjusted.
func allocateExact(total decimal.Decimal, participantIDs []string, amounts []decimal.Decimal) ([]Allocation, error) {
	if len(amounts) != len(participantIDs) {
		return nil, fmt.Errorf("%w: %d amounts for %d participants",
			ErrInvalidSplitParameters, len(amounts), len(participantIDs))
	}

	sum := decimal.Zero
	for _, a := range amounts {
		if a.IsNegative() {
			return nil, fmt.Errorf("%w: amount %s is negative", ErrInvalidSplitParameters, a)
		}
		if !a.Equal(a.Round(2)) {
			return nil, fmt.Errorf("%w: amount %s has more than 2 decimal places", ErrInvalidSplitParameters, a)
		}
		sum = sum.Add(a)
	}
	if !sum.Equal(total) {
		return nil, fmt.Errorf("%w: amounts sum to %s, want %s", ErrInvalidSplitParameters, sum, total)
	}

	allocations := make([]Allocation, len(participantIDs))
	for i, userID := range participantIDs {
		allocations[i] = Allocation{UserID: userID, Amount: amounts[i]}
	}
	return allocations, nil
}

// allocateShares splits proportionally to share counts, with the same
// last-participant remainder absorption as percentage splits.
func allocateShares(total decimal.Decimal, participantIDs []string, shares []int64) ([]Allocation, error) {
	if len(shares) != len(participantIDs) {
		return nil, fmt.Errorf("%w: %d share counts for %d participants",
			ErrInvalidSplitParameters, len(shares), len(participantIDs))
	}

	var totalShares int64
	for _, s := range shares {
		if s <= 0 {
			return nil, fmt.Errorf("%w: share count %d must be positive", ErrInvalidSplitParameters, s)
		}
		totalShares += s
	}

	allocations := make([]Allocation, len(participantIDs))
	allocated := decimal.Zero
	for i, userID := range participantIDs {
		var amount decimal.Decimal
		if i == len(participantIDs)-1 {
			amount = total.Sub(allocated)
		} else {
			amount = total.Mul(decimal.NewFromInt(shares[i])).Div(decimal.NewFromInt(totalShares)).Round(2)
		}
		allocated = allocated.Add(amount)
		allocations[i] = Allocation{
			UserID: userID,
			Amount: amount,
			Shares: shares[i],
		}
	}
	if last := allocations[len(allocations)-1].Amount; last.IsNegative() {
		return nil, fmt.Errorf("%w: rounding left a negative remainder %s", ErrInvalidSplitParameters, last)
	}
	return allocations, nil
}
