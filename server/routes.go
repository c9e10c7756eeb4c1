package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// USERS
	s.public("POST", RouteLogin, s.LoginHandler())
	s.authenticated("POST", RouteLogout, s.LogoutHandler())
	s.authenticated("GET", RouteProfile, s.ProfileHandler())
	s.authenticated("PUT", RouteProfile, s.UpdateProfileHandler())
	s.authenticated("PATCH", RouteProfile, s.UpdateProfileHandler())
	s.authenticated("POST", RouteChangePassword, s.ChangePasswordHandler())

	s.admin("GET", RouteAdminUsers, s.ListUsersHandler())
	s.admin("POST", RouteAdminUsers, s.CreateUserHandler())
	s.admin("PUT", RouteAdminUser, s.UpdateUserHandler())
	s.admin("DELETE", RouteAdminUser, s.DeleteUserHandler())

	// CARDS
	s.authenticated("GET", RouteMyCards, s.MyCardsHandler())
	s.authenticated("GET", RouteCard, s.CardHandler())
	s.authenticated("DELETE", RouteCard, s.DeleteCardHandler())
	s.authenticated("POST", RouteActivateCard, s.ActivateCardHandler())
	s.authenticated("POST", RouteDeactivateCard, s.DeactivateCardHandler())
	s.authenticated("GET", RouteCardStats, s.CardStatsHandler())
	s.authenticated("POST", RouteRequestCard, s.RequestCardHandler())
	s.authenticated("GET", RouteMyRequests, s.MyRequestsHandler())

	s.admin("GET", RouteAdminRequests, s.AdminRequestsHandler())
	s.admin("GET", RouteAdminRequest, s.AdminRequestHandler())
	s.admin("PATCH", RouteAdminRequest, s.ReviewRequestHandler())
	s.admin("PUT", RouteAdminRequest, s.ReviewRequestHandler())
	s.admin("GET", RouteAdminCards, s.AdminCardsHandler())
	s.admin("GET", RouteAdminCardStats, s.AdminCardStatsHandler())

	// NOTIFICATIONS
	s.authenticated("GET", RouteRecentNotifications, s.RecentNotificationsHandler())
	s.authenticated("GET", RoutePollNotifications, s.PollNotificationsHandler())
	s.authenticated("POST", RouteMarkRead, s.MarkReadHandler())
	s.authenticated("DELETE", RouteDeleteNotification, s.DeleteNotificationHandler())
	s.authenticated("POST", RouteClearNotifications, s.ClearNotificationsHandler())
	s.authenticated("GET", RouteNotificationStats, s.NotificationStatsHandler())

	// CORS preflight for every API route
	s.RegisterRouteFunc("OPTIONS /api/", ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, s.APIMiddleware()...))
}

// Every route path ends in a slash; {$} stops it matching the whole subtree
func (s *Server) public(method, path string, handler http.HandlerFunc) {
	s.RegisterRouteFunc(method+" "+path+"{$}", ChainMiddleware(handler, s.APIMiddleware()...))
}

func (s *Server) authenticated(method, path string, handler http.HandlerFunc) {
	s.RegisterRouteFunc(method+" "+path+"{$}", ChainMiddleware(handler, s.APIMiddleware(s.RequireAuth)...))
}

func (s *Server) admin(method, path string, handler http.HandlerFunc) {
	s.RegisterRouteFunc(method+" "+path+"{$}", ChainMiddleware(handler, s.APIMiddleware(s.RequireAuth, s.RequireAdmin)...))
}
