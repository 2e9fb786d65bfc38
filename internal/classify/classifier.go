package classify

import (
	"context"

	"frontoffice-engine/internal/domain"
)

// Result is one classification decision. Function and Level are empty
// when the posting is rejected or the desk/seniority is unknown.
type Result struct {
	FrontOffice bool
	Function    domain.Function
	Level       domain.Level
}

// Classifier decides front-office membership for a batch of postings.
// Implementations always return exactly len(postings) results, in input
// order; failures degrade individual results to the reject default, they
// never shrink the slice or surface an error to the caller.
type Classifier interface {
	Classify(ctx context.Context, postings []domain.Posting) []Result
}
