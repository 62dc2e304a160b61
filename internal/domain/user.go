package domain

const (
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
)

type User struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Phone     string `db:"phone"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"`
	CreatedAt string `db:"created_at"`
}

// Identity is the signed-in caller, resolved once per request and handed to services.
type Identity struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"-"`
}

func (u *User) Identity(sid string) *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, SessionID: sid}
}

func (i *Identity) IsLandlord() bool { return i != nil && i.Role == RoleLandlord }
func (i *Identity) IsTenant() bool   { return i != nil && i.Role == RoleTenant }
