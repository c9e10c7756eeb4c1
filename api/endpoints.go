package api

// Backend REST endpoints
const (
	LoginPath          = "/api/users/login/"
	LogoutPath         = "/api/users/logout/"
	ProfilePath        = "/api/auth/profile/"
	ChangePasswordPath = "/api/auth/change-password/"

	AdminUsersPath = "/api/users/admin/users/"
	AdminUserPath  = "/api/users/admin/users/%d/"

	RecentNotificationsPath   = "/api/notifications/recent/"
	PollNotificationsPath     = "/api/notifications/polling/"
	MarkNotificationsReadPath = "/api/notifications/mark-read/"
	DeleteNotificationPath    = "/api/notifications/%d/delete/"
	ClearNotificationsPath    = "/api/notifications/clear-all/"
	NotificationStatsPath     = "/api/notifications/stats/"

	MyCardsPath        = "/api/cards/my-cards/"
	CardPath           = "/api/cards/cards/%d/"
	ActivateCardPath   = "/api/cards/cards/%d/activate/"
	DeactivateCardPath = "/api/cards/cards/%d/deactivate/"
	CardStatsPath      = "/api/cards/stats/"
	RequestCardPath    = "/api/cards/request/"
	MyRequestsPath     = "/api/cards/my-requests/"
	AdminRequestsPath  = "/api/cards/admin/requests/"
	AdminRequestPath   = "/api/cards/admin/requests/%d/"
	AdminCardsPath     = "/api/cards/admin/cards/"
	AdminCardStatsPath = "/api/cards/admin/stats/"
)
