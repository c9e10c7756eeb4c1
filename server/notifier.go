package server

import (
	"fmt"

	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/notifications"
	"github.com/jrsteele09/go-card-portal/router"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/rs/zerolog/log"
)

// Card lifecycle events become notifications for the card holder; new
// requests are announced to every administrator.

func (s *Server) notifyCardActivated(card cards.Card) {
	s.data.notify(card.UserID, notifications.Notification{
		Title:            "Card activated",
		Message:          fmt.Sprintf("Your card '%s' has been activated.", card.CardName),
		NotificationType: notifications.TypeSuccess,
		Category:         notifications.CategoryCardActivation,
		RelatedCardID:    &card.ID,
		ActionURL:        router.UserDashboardPath,
	}, s.now())
}

func (s *Server) notifyCardDeactivated(card cards.Card) {
	s.data.notify(card.UserID, notifications.Notification{
		Title:            "Card deactivated",
		Message:          fmt.Sprintf("Your card '%s' has been deactivated.", card.CardName),
		NotificationType: notifications.TypeWarning,
		Category:         notifications.CategoryCardDeactivation,
		RelatedCardID:    &card.ID,
		ActionURL:        router.UserDashboardPath,
	}, s.now())
}

func (s *Server) notifyApproved(request cards.Request, card cards.Card) {
	s.data.notify(request.UserID, notifications.Notification{
		Title:            "Card request approved",
		Message:          fmt.Sprintf("Your request for the card '%s' has been approved. Your virtual card is now active.", card.CardName),
		NotificationType: notifications.TypeSuccess,
		Category:         notifications.CategoryCardApproval,
		IsImportant:      true,
		RelatedCardID:    &card.ID,
		RelatedRequestID: &request.ID,
		ActionURL:        router.UserDashboardPath,
	}, s.now())
}

func (s *Server) notifyRejected(request cards.Request) {
	message := fmt.Sprintf("Your request for the card '%s' has been rejected.", request.CardName)
	if request.AdminComments != "" {
		message += " Reason: " + request.AdminComments
	}
	s.data.notify(request.UserID, notifications.Notification{
		Title:            "Card request rejected",
		Message:          message,
		NotificationType: notifications.TypeError,
		Category:         notifications.CategoryCardRejection,
		IsImportant:      true,
		RelatedRequestID: &request.ID,
		ActionURL:        router.UserDashboardPath,
	}, s.now())
}

func (s *Server) notifyNewRequest(requester *users.Account, request cards.Request) {
	admins, err := s.admins()
	if err != nil {
		log.Err(err).Int("request_id", request.ID).Msg("failed to notify admins of new request")
		return
	}
	for _, admin := range admins {
		s.data.notify(admin.ID, notifications.Notification{
			Title:            "New card request",
			Message:          fmt.Sprintf("A new request for the card '%s' was submitted by %s.", request.CardName, displayName(requester)),
			NotificationType: notifications.TypeInfo,
			Category:         notifications.CategoryNewRequest,
			IsImportant:      true,
			RelatedRequestID: &request.ID,
			ActionURL:        router.CardManagementPath,
		}, s.now())
	}
}

func (s *Server) admins() ([]*users.Account, error) {
	all, err := s.users.List(0, 0)
	if err != nil {
		return nil, err
	}
	admins := make([]*users.Account, 0, len(all))
	for _, account := range all {
		if account.IsAdmin() && account.Status == users.StatusActive {
			admins = append(admins, account)
		}
	}
	return admins, nil
}

func displayName(account *users.Account) string {
	if name := account.FullName(); name != "" {
		return name
	}
	return account.Username
}
