package cards

import (
	"time"

	"github.com/jrsteele09/go-card-portal/internal/utils"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusBlocked  Status = "blocked"
	StatusExpired  Status = "expired"
	StatusRejected Status = "rejected"
)

type Type string

const (
	TypeShopping Type = "shopping"
	TypeTravel   Type = "travel"
	TypeBusiness Type = "business"
	TypePersonal Type = "personal"
)

// Category is the tier a card is issued in, derived from its credit limit
type Category string

const (
	CategoryClassic  Category = "classic"
	CategoryGold     Category = "gold"
	CategoryPlatinum Category = "platinum"
	CategoryDiamond  Category = "diamond"
)

// RequestStatus is the review state of a card request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Card is a virtual card as the backend serialises it
type Card struct {
	ID           int           `json:"id"`
	Number       string        `json:"numeroCart"`
	MaskedNumber string        `json:"masked_numero"`
	CVV          string        `json:"cvv2"`
	ExpiresOn    utils.Date    `json:"dateExpiration"`
	CreatedAt    time.Time     `json:"dateCreation"`
	UserID       int           `json:"utilisateur"`
	UserName     string        `json:"utilisateur_name"`
	CardType     Type          `json:"card_type"`
	CardCategory Category      `json:"card_category,omitempty"`
	CardName     string        `json:"card_name"`
	Status       Status        `json:"status"`
	Balance      utils.Decimal `json:"balance"`
	CreditLimit  utils.Decimal `json:"credit_limit"`
}

// UserDetails is the requester summary embedded in a card request
type UserDetails struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// Request is a user's application for a new card
type Request struct {
	ID               int            `json:"id"`
	UserID           int            `json:"user"`
	UserDetails      *UserDetails   `json:"user_details,omitempty"`
	CardType         Type           `json:"card_type"`
	CardName         string         `json:"card_name"`
	RequestedLimit   utils.Decimal  `json:"requested_limit"`
	AgeVerified      bool           `json:"age_verified"`
	DateOfBirth      utils.Date     `json:"date_of_birth"`
	PhoneNumber      string         `json:"phone_number"`
	EmergencyContact string         `json:"emergency_contact"`
	Profession       string         `json:"profession"`
	MonthlyIncome    *utils.Decimal `json:"monthly_income"`
	IdentityDocument string         `json:"identity_document"`
	IncomeProof      string         `json:"income_proof"`
	Reason           string         `json:"reason"`
	Status           RequestStatus  `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	ReviewedAt       *time.Time     `json:"reviewed_at"`
	ReviewedBy       *int           `json:"reviewed_by"`
	AdminComments    string         `json:"admin_comments"`
	ApprovedCard     *int           `json:"approved_card"`
}

// NewRequest is the payload of a card request. Documents are references
// (URLs or upload keys) to files already stored by the backend.
type NewRequest struct {
	CardType         Type           `json:"card_type" validate:"required,oneof=shopping travel business personal"`
	CardName         string         `json:"card_name" validate:"required,max=100"`
	RequestedLimit   utils.Decimal  `json:"requested_limit" validate:"gt=0,lte=10000"`
	DateOfBirth      utils.Date     `json:"date_of_birth"`
	PhoneNumber      string         `json:"phone_number,omitempty" validate:"max=20"`
	EmergencyContact string         `json:"emergency_contact,omitempty" validate:"max=20"`
	Profession       string         `json:"profession,omitempty" validate:"max=100"`
	MonthlyIncome    *utils.Decimal `json:"monthly_income,omitempty"`
	IdentityDocument string         `json:"identity_document,omitempty"`
	IncomeProof      string         `json:"income_proof,omitempty"`
	Reason           string         `json:"reason" validate:"required,trimmed_min=10"`
}

// Review is an admin decision on a pending request
type Review struct {
	Status        RequestStatus `json:"status" validate:"required,oneof=approved rejected"`
	AdminComments string        `json:"admin_comments"`
}

// Stats summarises the signed-in user's cards
type Stats struct {
	TotalCards   int           `json:"total_cards"`
	ActiveCards  int           `json:"active_cards"`
	BlockedCards int           `json:"blocked_cards"`
	PendingCards int           `json:"pending_cards"`
	TotalBalance utils.Decimal `json:"total_balance"`
	Cards        []Card        `json:"cards"`
}

// AdminStats summarises every card and request in the system
type AdminStats struct {
	TotalCards       int           `json:"total_cards"`
	ActiveCards      int           `json:"active_cards"`
	BlockedCards     int           `json:"blocked_cards"`
	PendingRequests  int           `json:"pending_requests"`
	ApprovedRequests int           `json:"approved_requests"`
	RejectedRequests int           `json:"rejected_requests"`
	TotalBalance     utils.Decimal `json:"total_balance"`
}

type cardReply struct {
	Message string `json:"message"`
	Card    Card   `json:"card"`
}
