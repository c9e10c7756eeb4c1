package cards_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/stretchr/testify/require"
)

var reviewDay = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func eligibleRequest() cards.Request {
	return cards.Request{
		ID:               7,
		UserID:           12,
		CardType:         cards.TypeTravel,
		CardName:         "Holidays",
		RequestedLimit:   utils.NewDecimal(2500),
		DateOfBirth:      utils.NewDate(1990, time.March, 2),
		IdentityDocument: "/media/documents/passport.pdf",
		IncomeProof:      "/media/documents/payslip.pdf",
		Reason:           "Travelling abroad for three months",
		Status:           cards.RequestPending,
	}
}

func failedRules(check cards.ApprovalCheck) []cards.Rule {
	var rules []cards.Rule
	for _, c := range check.Failed() {
		rules = append(rules, c.Rule)
	}
	return rules
}

func TestCheckApproval_AllConditionsHold(t *testing.T) {
	request := eligibleRequest()
	check := cards.CheckApproval(request, []cards.Request{request}, reviewDay)

	require.True(t, check.CanApprove)
	require.Len(t, check.Conditions, 6)
	require.Empty(t, check.Failed())

	expectedOrder := []cards.Rule{
		cards.RuleAge, cards.RuleLimit, cards.RuleNoDuplicate,
		cards.RuleIdentityDocument, cards.RuleIncomeProof, cards.RuleReason,
	}
	for i, c := range check.Conditions {
		require.Equal(t, expectedOrder[i], c.Rule)
		require.True(t, c.Valid)
		require.NotEmpty(t, c.Message)
	}
}

func TestCheckApproval_EachRule(t *testing.T) {
	tests := map[string]struct {
		modify   func(r *cards.Request)
		others   []cards.Request
		expected []cards.Rule
	}{
		"missing date of birth": {
			modify:   func(r *cards.Request) { r.DateOfBirth = utils.Date{} },
			expected: []cards.Rule{cards.RuleAge},
		},
		"under age the day before the 18th birthday": {
			modify:   func(r *cards.Request) { r.DateOfBirth = utils.NewDate(2007, time.June, 16) },
			expected: []cards.Rule{cards.RuleAge},
		},
		"limit above 10000": {
			modify:   func(r *cards.Request) { r.RequestedLimit = utils.MustDecimal("10000.01") },
			expected: []cards.Rule{cards.RuleLimit},
		},
		"zero limit": {
			modify:   func(r *cards.Request) { r.RequestedLimit = utils.Decimal{} },
			expected: []cards.Rule{cards.RuleLimit},
		},
		"other pending request of the same type": {
			others:   []cards.Request{{ID: 8, UserID: 12, CardType: cards.TypeTravel, Status: cards.RequestPending}},
			expected: []cards.Rule{cards.RuleNoDuplicate},
		},
		"missing identity document": {
			modify:   func(r *cards.Request) { r.IdentityDocument = "" },
			expected: []cards.Rule{cards.RuleIdentityDocument},
		},
		"missing income proof": {
			modify:   func(r *cards.Request) { r.IncomeProof = "" },
			expected: []cards.Rule{cards.RuleIncomeProof},
		},
		"reason short after trimming": {
			modify:   func(r *cards.Request) { r.Reason = "   travel    " },
			expected: []cards.Rule{cards.RuleReason},
		},
		"everything wrong": {
			modify: func(r *cards.Request) {
				*r = cards.Request{ID: r.ID, UserID: r.UserID, CardType: r.CardType, Status: cards.RequestPending}
			},
			others: []cards.Request{{ID: 9, UserID: 12, CardType: cards.TypeTravel, Status: cards.RequestPending}},
			expected: []cards.Rule{
				cards.RuleAge, cards.RuleLimit, cards.RuleNoDuplicate,
				cards.RuleIdentityDocument, cards.RuleIncomeProof, cards.RuleReason,
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			request := eligibleRequest()
			if tc.modify != nil {
				tc.modify(&request)
			}
			all := append([]cards.Request{request}, tc.others...)

			check := cards.CheckApproval(request, all, reviewDay)
			require.False(t, check.CanApprove)
			require.Equal(t, tc.expected, failedRules(check))
		})
	}
}

func TestCheckApproval_ExactlyEighteenToday(t *testing.T) {
	request := eligibleRequest()
	request.DateOfBirth = utils.NewDate(2007, time.June, 15)
	require.True(t, cards.CheckApproval(request, nil, reviewDay).CanApprove)
}

func TestCheckApproval_DuplicatesIgnoreOtherUsersTypesAndReviewed(t *testing.T) {
	request := eligibleRequest()
	all := []cards.Request{
		request,
		{ID: 20, UserID: 99, CardType: cards.TypeTravel, Status: cards.RequestPending},
		{ID: 21, UserID: 12, CardType: cards.TypeBusiness, Status: cards.RequestPending},
		{ID: 22, UserID: 12, CardType: cards.TypeTravel, Status: cards.RequestApproved},
		{ID: 23, UserID: 12, CardType: cards.TypeTravel, Status: cards.RequestRejected},
	}
	require.True(t, cards.CheckApproval(request, all, reviewDay).CanApprove)
}

func TestApprovalRejectedError(t *testing.T) {
	request := eligibleRequest()
	request.IncomeProof = ""
	err := &cards.ApprovalRejectedError{RequestID: 7, Check: cards.CheckApproval(request, nil, reviewDay)}
	require.Equal(t, "request 7 cannot be approved: proof of income is missing", err.Error())
}
