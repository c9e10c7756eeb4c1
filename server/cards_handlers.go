package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/internal/validation"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/rs/zerolog/log"
)

var (
	minRequestedLimit = utils.NewDecimal(100)
	maxRequestedLimit = utils.NewDecimal(cards.MaxRequestedLimit)
)

// activationRefusals is the error sent when a card cannot be activated from its status
var activationRefusals = map[cards.Status]string{
	cards.StatusActive:  "Card is already active",
	cards.StatusExpired: "Cannot activate an expired card",
}

type cardReply struct {
	Message string     `json:"message"`
	Card    cards.Card `json:"card"`
}

func (s *Server) MyCardsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.ownCards(accountFromContext(r.Context()).ID))
	}
}

func (s *Server) CardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, ok := s.ownCardFromPath(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

// DeleteCardHandler expires the card instead of removing it
func (s *Server) DeleteCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, ok := s.ownCardFromPath(w, r)
		if !ok {
			return
		}
		if _, err := s.data.updateCard(card.ID, func(c *cards.Card) error {
			c.Status = cards.StatusExpired
			return nil
		}); err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ActivateCardHandler activates pending and blocked cards
func (s *Server) ActivateCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, ok := s.ownCardFromPath(w, r)
		if !ok {
			return
		}

		var refusal string
		updated, err := s.data.updateCard(card.ID, func(c *cards.Card) error {
			if c.Status != cards.StatusPending && c.Status != cards.StatusBlocked {
				refusal = activationRefusals[c.Status]
				if refusal == "" {
					refusal = fmt.Sprintf("Card cannot be activated. Current status: %s", c.Status)
				}
				return fmt.Errorf("card %d is %s", c.ID, c.Status)
			}
			c.Status = cards.StatusActive
			return nil
		})
		if refusal != "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":       refusal,
				"card_status": string(updated.Status),
			})
			return
		}
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}

		s.notifyCardActivated(updated)
		writeJSON(w, http.StatusOK, cardReply{Message: "Card activated successfully", Card: updated})
	}
}

func (s *Server) DeactivateCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, ok := s.ownCardFromPath(w, r)
		if !ok {
			return
		}
		updated, err := s.data.updateCard(card.ID, func(c *cards.Card) error {
			c.Status = cards.StatusBlocked
			return nil
		})
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}

		s.notifyCardDeactivated(updated)
		writeJSON(w, http.StatusOK, cardReply{Message: "Card deactivated successfully", Card: updated})
	}
}

func (s *Server) CardStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owned := s.ownCards(accountFromContext(r.Context()).ID)
		stats := cards.Stats{TotalCards: len(owned), Cards: owned}
		for _, c := range owned {
			switch c.Status {
			case cards.StatusActive:
				stats.ActiveCards++
			case cards.StatusBlocked:
				stats.BlockedCards++
			case cards.StatusPending:
				stats.PendingCards++
			}
			stats.TotalBalance = stats.TotalBalance.Add(c.Balance)
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// RequestCardHandler files a card request. The requester must be an adult,
// ask for a limit between 100 and 10 000, explain why, and have no other
// pending request for the same card type.
func (s *Server) RequestCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cards.NewRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		account := accountFromContext(r.Context())
		now := s.now()
		if fieldErrs := s.checkNewRequest(account, req); len(fieldErrs) > 0 {
			writeFieldErrors(w, fieldErrs)
			return
		}

		request := s.data.addRequest(cards.Request{
			UserID: account.ID,
			UserDetails: &cards.UserDetails{
				ID:          account.ID,
				FirstName:   account.FirstName,
				LastName:    account.LastName,
				Email:       account.Email,
				PhoneNumber: account.PhoneNumber,
			},
			CardType:         req.CardType,
			CardName:         req.CardName,
			RequestedLimit:   req.RequestedLimit,
			AgeVerified:      req.DateOfBirth.YearsSince(now) >= cards.MinimumAge,
			DateOfBirth:      req.DateOfBirth,
			PhoneNumber:      req.PhoneNumber,
			EmergencyContact: req.EmergencyContact,
			Profession:       req.Profession,
			MonthlyIncome:    req.MonthlyIncome,
			IdentityDocument: req.IdentityDocument,
			IncomeProof:      req.IncomeProof,
			Reason:           req.Reason,
			Status:           cards.RequestPending,
			CreatedAt:        now,
		})

		log.Info().
			Int("request_id", request.ID).
			Str("card_type", string(request.CardType)).
			Str("email", account.Email).
			Msg("card requested")
		s.notifyNewRequest(account, request)
		writeJSON(w, http.StatusCreated, request)
	}
}

func (s *Server) checkNewRequest(account *users.Account, req cards.NewRequest) map[string]string {
	errs := map[string]string{}
	if err := validation.Struct(req); err != nil {
		errs["non_field_errors"] = err.Error()
	}

	switch {
	case req.DateOfBirth.IsZero():
		errs["date_of_birth"] = "Date of birth is required."
	case req.DateOfBirth.YearsSince(s.now()) < cards.MinimumAge:
		errs["date_of_birth"] = "You must be at least 18 years old to request a virtual card."
	}

	switch limit := req.RequestedLimit; {
	case limit.Cmp(minRequestedLimit) < 0:
		errs["requested_limit"] = "Minimum credit limit is $100."
	case limit.Cmp(maxRequestedLimit) > 0:
		errs["requested_limit"] = "Maximum credit limit is $10,000."
	}

	if len(strings.TrimSpace(req.Reason)) < cards.MinReasonLength {
		errs["reason"] = "Please provide a detailed reason (minimum 10 characters)."
	}

	pending := s.data.requestsWhere(func(r cards.Request) bool {
		return r.UserID == account.ID && r.CardType == req.CardType && r.Status == cards.RequestPending
	})
	if len(pending) > 0 {
		errs["non_field_errors"] = fmt.Sprintf("You already have a pending request for a %s card.", req.CardType)
	}
	return errs
}

func (s *Server) MyRequestsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := accountFromContext(r.Context()).ID
		writeJSON(w, http.StatusOK, s.data.requestsWhere(func(req cards.Request) bool {
			return req.UserID == userID
		}))
	}
}

func (s *Server) AdminRequestsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.requestsWhere(nil))
	}
}

func (s *Server) AdminRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		request, ok := s.data.request(id)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}

// ReviewRequestHandler approves or rejects a request. Approval issues an active card.
func (s *Server) ReviewRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}

		var review cards.Review
		if err := readJSON(w, r, &review); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validation.Struct(review); err != nil {
			writeFieldErrors(w, map[string]string{"status": "Status must be either 'approved' or 'rejected'"})
			return
		}

		reviewer := accountFromContext(r.Context())
		request, issued, err := s.data.reviewRequest(id, review, reviewer.ID, s.now())
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}

		log.Info().
			Int("request_id", request.ID).
			Str("status", string(request.Status)).
			Str("reviewed_by", reviewer.Email).
			Msg("card request reviewed")
		switch {
		case issued != nil:
			s.notifyApproved(request, *issued)
		case request.Status == cards.RequestRejected:
			s.notifyRejected(request)
		}
		writeJSON(w, http.StatusOK, request)
	}
}

func (s *Server) AdminCardsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.cardsWhere(nil))
	}
}

func (s *Server) AdminCardStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stats cards.AdminStats
		for _, c := range s.data.cardsWhere(nil) {
			stats.TotalCards++
			switch c.Status {
			case cards.StatusActive:
				stats.ActiveCards++
			case cards.StatusBlocked:
				stats.BlockedCards++
			}
			stats.TotalBalance = stats.TotalBalance.Add(c.Balance)
		}
		for _, req := range s.data.requestsWhere(nil) {
			switch req.Status {
			case cards.RequestPending:
				stats.PendingRequests++
			case cards.RequestApproved:
				stats.ApprovedRequests++
			case cards.RequestRejected:
				stats.RejectedRequests++
			}
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// ownCards lists the user's cards, leaving out expired ones
func (s *Server) ownCards(userID int) []cards.Card {
	return s.data.cardsWhere(func(c cards.Card) bool {
		return c.UserID == userID && c.Status != cards.StatusExpired
	})
}

func (s *Server) ownCardFromPath(w http.ResponseWriter, r *http.Request) (cards.Card, bool) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return cards.Card{}, false
	}
	card, ok := s.data.card(id)
	if !ok || card.UserID != accountFromContext(r.Context()).ID {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return cards.Card{}, false
	}
	return card, true
}
