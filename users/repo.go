package users

// Account is the backend's view of a user: the public identity plus the password hash
type Account struct {
	Identity
	PasswordHash string `json:"-"`
}

type UserRepo interface {
	Upsert(account *Account) error
	Delete(id int) error
	GetByEmail(email string) (*Account, error)
	GetByID(id int) (*Account, error)
	List(offset, limit int) ([]*Account, error)
}
