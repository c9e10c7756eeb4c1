package cards

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-card-portal/internal/utils"
)

const (
	MinimumAge        = 18
	MaxRequestedLimit = 10000
	MinReasonLength   = 10
)

// Rule identifies one of the conditions a request must meet before approval
type Rule string

const (
	RuleAge              Rule = "age"
	RuleLimit            Rule = "limit"
	RuleNoDuplicate      Rule = "no_duplicate"
	RuleIdentityDocument Rule = "identity_document"
	RuleIncomeProof      Rule = "income_proof"
	RuleReason           Rule = "reason"
)

type Condition struct {
	Rule    Rule
	Valid   bool
	Message string
}

// ApprovalCheck is the outcome of checking a request against every Rule, in order
type ApprovalCheck struct {
	Conditions []Condition
	CanApprove bool
}

// Failed returns the conditions that did not hold
func (c ApprovalCheck) Failed() []Condition {
	var failed []Condition
	for _, cond := range c.Conditions {
		if !cond.Valid {
			failed = append(failed, cond)
		}
	}
	return failed
}

// ApprovalRejectedError is returned when an approval is refused before reaching the backend
type ApprovalRejectedError struct {
	RequestID int
	Check     ApprovalCheck
}

func (e *ApprovalRejectedError) Error() string {
	failed := e.Check.Failed()
	messages := make([]string, 0, len(failed))
	for _, cond := range failed {
		messages = append(messages, cond.Message)
	}
	return fmt.Sprintf("request %d cannot be approved: %s", e.RequestID, strings.Join(messages, "; "))
}

// CheckApproval evaluates request against the approval rules. all is the full list of
// requests known to the reviewer and is used to detect duplicate pending requests.
func CheckApproval(request Request, all []Request, now time.Time) ApprovalCheck {
	check := ApprovalCheck{CanApprove: true}
	add := func(rule Rule, valid bool, ok, failed string) {
		msg := ok
		if !valid {
			msg = failed
			check.CanApprove = false
		}
		check.Conditions = append(check.Conditions, Condition{Rule: rule, Valid: valid, Message: msg})
	}

	if request.DateOfBirth.IsZero() {
		add(RuleAge, false, "", "date of birth is missing")
	} else {
		add(RuleAge, request.DateOfBirth.YearsSince(now) >= MinimumAge,
			"applicant is 18 or older", "applicant must be 18 or older")
	}

	limit := request.RequestedLimit
	add(RuleLimit, limit.IsPositive() && limit.Cmp(utils.NewDecimal(MaxRequestedLimit)) <= 0,
		"requested limit is within 10,000", "requested limit must be at most 10,000")

	add(RuleNoDuplicate, !hasOtherPending(request, all),
		"no other pending request for this card type", "applicant already has a pending request for this card type")

	add(RuleIdentityDocument, request.IdentityDocument != "",
		"identity document provided", "identity document is missing")

	add(RuleIncomeProof, request.IncomeProof != "",
		"proof of income provided", "proof of income is missing")

	add(RuleReason, len([]rune(strings.TrimSpace(request.Reason))) >= MinReasonLength,
		"reason is filled in", "reason must be at least 10 characters")

	return check
}

func hasOtherPending(request Request, all []Request) bool {
	for _, other := range all {
		if other.ID != request.ID &&
			other.UserID == request.UserID &&
			other.CardType == request.CardType &&
			other.Status == RequestPending {
			return true
		}
	}
	return false
}
