package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/notifications"
)

var errNotFound = errors.New("not found")

// userNotification is a notification together with the account it belongs to
type userNotification struct {
	userID int
	notifications.Notification
}

// store holds the cards, card requests and notifications of the development backend.
// Every accessor returns copies.
type store struct {
	mu            sync.RWMutex
	cards         map[int]*cards.Card
	requests      map[int]*cards.Request
	notifications map[int]*userNotification
	nextCard      int
	nextRequest   int
	nextNote      int
}

func newStore() *store {
	return &store{
		cards:         make(map[int]*cards.Card),
		requests:      make(map[int]*cards.Request),
		notifications: make(map[int]*userNotification),
		nextCard:      1,
		nextRequest:   1,
		nextNote:      1,
	}
}

// Cards

func (st *store) addCard(card cards.Card) cards.Card {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.addCardLocked(card)
}

func (st *store) addCardLocked(card cards.Card) cards.Card {
	card.ID = st.nextCard
	st.nextCard++
	stored := card
	st.cards[card.ID] = &stored
	return card
}

// cardsWhere returns the cards matching keep, newest first
func (st *store) cardsWhere(keep func(cards.Card) bool) []cards.Card {
	st.mu.RLock()
	defer st.mu.RUnlock()

	list := make([]cards.Card, 0, len(st.cards))
	for _, c := range st.cards {
		if keep == nil || keep(*c) {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func (st *store) card(id int) (cards.Card, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	c, ok := st.cards[id]
	if !ok {
		return cards.Card{}, false
	}
	return *c, true
}

// updateCard applies change to a copy of card id and stores it when change succeeds
func (st *store) updateCard(id int, change func(*cards.Card) error) (cards.Card, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	c, ok := st.cards[id]
	if !ok {
		return cards.Card{}, errNotFound
	}
	updated := *c
	if err := change(&updated); err != nil {
		return *c, err
	}
	st.cards[id] = &updated
	return updated, nil
}

func (st *store) deleteCardsOf(userID int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, c := range st.cards {
		if c.UserID == userID {
			delete(st.cards, id)
		}
	}
}

// Card requests

func (st *store) addRequest(request cards.Request) cards.Request {
	st.mu.Lock()
	defer st.mu.Unlock()

	request.ID = st.nextRequest
	st.nextRequest++
	stored := request
	st.requests[request.ID] = &stored
	return request
}

// requestsWhere returns the requests matching keep, newest first
func (st *store) requestsWhere(keep func(cards.Request) bool) []cards.Request {
	st.mu.RLock()
	defer st.mu.RUnlock()

	list := make([]cards.Request, 0, len(st.requests))
	for _, r := range st.requests {
		if keep == nil || keep(*r) {
			list = append(list, *r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func (st *store) request(id int) (cards.Request, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	r, ok := st.requests[id]
	if !ok {
		return cards.Request{}, false
	}
	return *r, true
}

// reviewRequest records an admin decision. Approving issues an active card
// sized by the requested limit.
func (st *store) reviewRequest(id int, review cards.Review, reviewerID int, now time.Time) (cards.Request, *cards.Card, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	r, ok := st.requests[id]
	if !ok {
		return cards.Request{}, nil, errNotFound
	}
	updated := *r
	updated.Status = review.Status
	updated.AdminComments = review.AdminComments
	updated.ReviewedAt = utils.Ptr(now)
	updated.ReviewedBy = utils.Ptr(reviewerID)

	var issued *cards.Card
	if review.Status == cards.RequestApproved && r.ApprovedCard == nil {
		card := st.addCardLocked(newCard(updated, now))
		updated.ApprovedCard = utils.Ptr(card.ID)
		issued = &card
	}
	st.requests[id] = &updated
	return updated, issued, nil
}

func (st *store) deleteRequestsOf(userID int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, r := range st.requests {
		if r.UserID == userID {
			delete(st.requests, id)
		}
	}
}

func newCard(request cards.Request, now time.Time) cards.Card {
	category := cards.CategoryForLimit(request.RequestedLimit)
	number := cards.GenerateNumber(request.CardType)
	expires := cards.ExpiryFor(category, now)

	var userName string
	if request.UserDetails != nil {
		userName = request.UserDetails.FirstName + " " + request.UserDetails.LastName
	}
	return cards.Card{
		Number:       number,
		MaskedNumber: cards.MaskNumber(number),
		CVV:          cards.GenerateCVV(number, expires),
		ExpiresOn:    utils.Date{Time: expires},
		CreatedAt:    now,
		UserID:       request.UserID,
		UserName:     userName,
		CardType:     request.CardType,
		CardCategory: category,
		CardName:     request.CardName,
		Status:       cards.StatusActive,
		CreditLimit:  request.RequestedLimit,
	}
}

// Notifications

func (st *store) notify(userID int, n notifications.Notification, now time.Time) notifications.Notification {
	st.mu.Lock()
	defer st.mu.Unlock()

	n.ID = st.nextNote
	st.nextNote++
	n.CreatedAt = now
	st.notifications[n.ID] = &userNotification{userID: userID, Notification: n}
	return n
}

// notificationsOf returns the user's notifications matching keep, newest first
func (st *store) notificationsOf(userID int, keep func(notifications.Notification) bool) []notifications.Notification {
	st.mu.RLock()
	defer st.mu.RUnlock()

	list := []notifications.Notification{}
	for _, un := range st.notifications {
		if un.userID == userID && (keep == nil || keep(un.Notification)) {
			list = append(list, un.Notification)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func (st *store) unreadCount(userID int) int {
	return len(st.notificationsOf(userID, func(n notifications.Notification) bool { return !n.IsRead }))
}

// markRead marks the given notifications, or all of them when ids is empty, as read
func (st *store) markRead(userID int, ids []int, now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	updated := 0
	for id, un := range st.notifications {
		if un.userID != userID || un.IsRead || (len(ids) > 0 && !wanted[id]) {
			continue
		}
		un.IsRead = true
		un.ReadAt = utils.Ptr(now)
		updated++
	}
	return updated
}

func (st *store) deleteNotification(userID, id int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	un, ok := st.notifications[id]
	if !ok || un.userID != userID {
		return false
	}
	delete(st.notifications, id)
	return true
}

func (st *store) clearNotifications(userID int) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	deleted := 0
	for id, un := range st.notifications {
		if un.userID == userID {
			delete(st.notifications, id)
			deleted++
		}
	}
	return deleted
}
