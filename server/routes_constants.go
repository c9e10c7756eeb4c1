package server

import "github.com/jrsteele09/go-card-portal/api"

// Route patterns served by the development backend. The paths the client
// calls come from the api package so both sides stay in step.
const (
	// Users
	RouteLogin          = api.LoginPath
	RouteLogout         = api.LogoutPath
	RouteProfile        = api.ProfilePath
	RouteChangePassword = api.ChangePasswordPath
	RouteAdminUsers     = api.AdminUsersPath
	RouteAdminUser      = "/api/users/admin/users/{id}/"

	// Cards
	RouteMyCards        = api.MyCardsPath
	RouteCard           = "/api/cards/cards/{id}/"
	RouteActivateCard   = "/api/cards/cards/{id}/activate/"
	RouteDeactivateCard = "/api/cards/cards/{id}/deactivate/"
	RouteCardStats      = api.CardStatsPath
	RouteRequestCard    = api.RequestCardPath
	RouteMyRequests     = api.MyRequestsPath
	RouteAdminRequests  = api.AdminRequestsPath
	RouteAdminRequest   = "/api/cards/admin/requests/{id}/"
	RouteAdminCards     = api.AdminCardsPath
	RouteAdminCardStats = api.AdminCardStatsPath

	// Notifications
	RouteRecentNotifications = api.RecentNotificationsPath
	RoutePollNotifications   = api.PollNotificationsPath
	RouteMarkRead            = api.MarkNotificationsReadPath
	RouteDeleteNotification  = "/api/notifications/{id}/delete/"
	RouteClearNotifications  = api.ClearNotificationsPath
	RouteNotificationStats   = api.NotificationStatsPath
)
