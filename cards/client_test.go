package cards_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-card-portal/api"
	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   any
}

// fakeCaller replies with canned JSON keyed by "METHOD path"
type fakeCaller struct {
	replies map[string]string
	calls   []call
}

func (fc *fakeCaller) Fetch(_ context.Context, method, path string, body, out any) error {
	fc.calls = append(fc.calls, call{method: method, path: path, body: body})
	reply, ok := fc.replies[method+" "+path]
	if !ok {
		return &api.StatusError{Status: http.StatusNotFound}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(reply), out)
}

func setupClient(replies map[string]string) (*cards.Client, *fakeCaller) {
	caller := &fakeCaller{replies: replies}
	return cards.NewClient(caller, cards.WithNowTime(func() time.Time { return reviewDay })), caller
}

const cardJSON = `{
	"id": 3,
	"numeroCart": "4532801234567897",
	"masked_numero": "**** **** **** 7897",
	"cvv2": "123",
	"dateExpiration": "2028-06-15",
	"dateCreation": "2025-06-15T10:00:00Z",
	"utilisateur": 12,
	"utilisateur_name": "Jane Doe",
	"card_type": "travel",
	"card_name": "Holidays",
	"status": "active",
	"balance": "120.50",
	"credit_limit": "2500.00"
}`

func TestClient_MyCards(t *testing.T) {
	t.Run("plain list", func(t *testing.T) {
		client, _ := setupClient(map[string]string{"GET " + api.MyCardsPath: "[" + cardJSON + "]"})
		list, err := client.MyCards(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)

		card := list[0]
		require.Equal(t, 3, card.ID)
		require.Equal(t, cards.TypeTravel, card.CardType)
		require.Equal(t, "120.50", card.Balance.String())
		require.Equal(t, utils.NewDecimal(2500), card.CreditLimit)
		require.Equal(t, "2028-06-15", card.ExpiresOn.String())
	})

	t.Run("paginated", func(t *testing.T) {
		client, _ := setupClient(map[string]string{
			"GET " + api.MyCardsPath: `{"count": 1, "next": null, "previous": null, "results": [` + cardJSON + `]}`,
		})
		list, err := client.MyCards(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)
	})
}

func TestClient_ActivateAndDeactivate(t *testing.T) {
	client, caller := setupClient(map[string]string{
		"POST " + fmt.Sprintf(api.ActivateCardPath, 3):   `{"message": "Card activated successfully", "card": ` + cardJSON + `}`,
		"POST " + fmt.Sprintf(api.DeactivateCardPath, 3): `{"message": "Card deactivated successfully", "card": {"id": 3, "status": "blocked"}}`,
	})

	card, err := client.Activate(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, cards.StatusActive, card.Status)

	card, err = client.Deactivate(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, cards.StatusBlocked, card.Status)

	_, err = client.Activate(context.Background(), 4)
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.Len(t, caller.calls, 3)
}

func validNewRequest() cards.NewRequest {
	return cards.NewRequest{
		CardType:         cards.TypeShopping,
		CardName:         "Groceries",
		RequestedLimit:   utils.NewDecimal(1500),
		DateOfBirth:      utils.NewDate(1988, time.November, 5),
		IdentityDocument: "/media/documents/id.pdf",
		IncomeProof:      "/media/documents/income.pdf",
		Reason:           "Weekly household shopping",
	}
}

func TestClient_RequestCard(t *testing.T) {
	t.Run("submitted", func(t *testing.T) {
		client, caller := setupClient(map[string]string{
			"POST " + api.RequestCardPath: `{"id": 40, "card_type": "shopping", "card_name": "Groceries", "status": "pending", "requested_limit": "1500.00"}`,
		})
		created, err := client.RequestCard(context.Background(), validNewRequest())
		require.NoError(t, err)
		require.Equal(t, 40, created.ID)
		require.Equal(t, cards.RequestPending, created.Status)
		require.Len(t, caller.calls, 1)

		sent, err := json.Marshal(caller.calls[0].body)
		require.NoError(t, err)
		require.Contains(t, string(sent), `"requested_limit":"1500.00"`)
		require.Contains(t, string(sent), `"date_of_birth":"1988-11-05"`)
	})

	invalid := map[string]func(r *cards.NewRequest){
		"unknown card type":   func(r *cards.NewRequest) { r.CardType = "crypto" },
		"missing name":        func(r *cards.NewRequest) { r.CardName = "" },
		"zero limit":          func(r *cards.NewRequest) { r.RequestedLimit = utils.Decimal{} },
		"limit above maximum": func(r *cards.NewRequest) { r.RequestedLimit = utils.NewDecimal(20000) },
		"short reason":        func(r *cards.NewRequest) { r.Reason = "  need it  " },
		"missing birth date":  func(r *cards.NewRequest) { r.DateOfBirth = utils.Date{} },
		"under age":           func(r *cards.NewRequest) { r.DateOfBirth = utils.NewDate(2010, time.January, 1) },
	}
	for name, modify := range invalid {
		t.Run(name, func(t *testing.T) {
			client, caller := setupClient(nil)
			req := validNewRequest()
			modify(&req)

			_, err := client.RequestCard(context.Background(), req)
			require.True(t, errors.Is(err, errors.ErrInvalidInput), err)
			require.Empty(t, caller.calls)
		})
	}
}

func adminRequestsJSON(t *testing.T, requests ...cards.Request) string {
	t.Helper()
	raw, err := json.Marshal(requests)
	require.NoError(t, err)
	return string(raw)
}

func TestClient_ReviewRequest(t *testing.T) {
	reviewPath := "PATCH " + fmt.Sprintf(api.AdminRequestPath, 7)

	t.Run("approval checked then sent", func(t *testing.T) {
		client, caller := setupClient(map[string]string{
			"GET " + api.AdminRequestsPath: adminRequestsJSON(t, eligibleRequest()),
			reviewPath:                     `{"status": "approved", "admin_comments": "Welcome aboard"}`,
		})

		reviewed, err := client.ReviewRequest(context.Background(), 7, cards.Review{Status: cards.RequestApproved, AdminComments: "Welcome aboard"})
		require.NoError(t, err)
		require.Equal(t, cards.RequestApproved, reviewed.Status)
		require.Equal(t, "Holidays", reviewed.CardName)
		require.Equal(t, "Welcome aboard", reviewed.AdminComments)
		require.Len(t, caller.calls, 2)
	})

	t.Run("approval refused locally", func(t *testing.T) {
		ineligible := eligibleRequest()
		ineligible.IdentityDocument = ""
		client, caller := setupClient(map[string]string{
			"GET " + api.AdminRequestsPath: adminRequestsJSON(t, ineligible),
			reviewPath:                     `{"status": "approved"}`,
		})

		_, err := client.ReviewRequest(context.Background(), 7, cards.Review{Status: cards.RequestApproved})
		var rejected *cards.ApprovalRejectedError
		require.True(t, errors.As(err, &rejected))
		require.Equal(t, 7, rejected.RequestID)
		require.Len(t, rejected.Check.Failed(), 1)
		require.Len(t, caller.calls, 1)
	})

	t.Run("rejection skips the checks", func(t *testing.T) {
		client, caller := setupClient(map[string]string{
			reviewPath: `{"status": "rejected", "admin_comments": "Missing documents"}`,
		})

		reviewed, err := client.ReviewRequest(context.Background(), 7, cards.Review{Status: cards.RequestRejected, AdminComments: "Missing documents"})
		require.NoError(t, err)
		require.Equal(t, 7, reviewed.ID)
		require.Equal(t, cards.RequestRejected, reviewed.Status)
		require.Len(t, caller.calls, 1)
	})

	t.Run("unknown request", func(t *testing.T) {
		client, _ := setupClient(map[string]string{"GET " + api.AdminRequestsPath: `[]`})
		_, err := client.ReviewRequest(context.Background(), 7, cards.Review{Status: cards.RequestApproved})
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("invalid status", func(t *testing.T) {
		client, caller := setupClient(nil)
		_, err := client.ReviewRequest(context.Background(), 7, cards.Review{Status: cards.RequestPending})
		require.True(t, errors.Is(err, errors.ErrInvalidInput))
		require.Empty(t, caller.calls)
	})
}

func TestClient_Stats(t *testing.T) {
	client, _ := setupClient(map[string]string{
		"GET " + api.CardStatsPath:      `{"total_cards": 2, "active_cards": 1, "blocked_cards": 1, "pending_cards": 0, "total_balance": 320.5, "cards": []}`,
		"GET " + api.AdminCardStatsPath: `{"total_cards": 9, "active_cards": 7, "pending_requests": 3, "approved_requests": 5, "rejected_requests": 1, "total_balance": 1000}`,
	})

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalCards)
	require.Equal(t, utils.MustDecimal("320.50"), stats.TotalBalance)

	adminStats, err := client.AdminStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, adminStats.PendingRequests)
}
