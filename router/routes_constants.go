package router

import "github.com/jrsteele09/go-card-portal/guard"

// Client side locations
const (
	HomePath           = "/"
	LoginPath          = guard.LoginPath
	AccessDeniedPath   = guard.AccessDeniedPath
	UserDashboardPath  = guard.UserDashboardPath
	AdminDashboardPath = guard.AdminDashboardPath

	// User
	CardDetailsPath = "/card-details/{cardId}"
	ProfilePath     = "/profile"
	AddCardPath     = "/add-card"

	// Admin
	CardManagementPath = "/card-management"
	CreateUserPath     = "/create-user"
	GeneratedCardsPath = "/generated-cards"
)
