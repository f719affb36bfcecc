package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the profile of an authenticated identity, keyed by its uid
type User struct {
	UID           string    `bson:"_id" json:"uid"`
	Email         string    `bson:"email" json:"email"`
	Phone         string    `bson:"phone" json:"phone"`
	Name          string    `bson:"name" json:"name"`
	Gender        string    `bson:"gender" json:"gender"`
	Address       string    `bson:"address" json:"address"`
	City          string    `bson:"city" json:"city"`
	Pincode       string    `bson:"pincode" json:"pincode"`
	EmailVerified bool      `bson:"emailVerified" json:"emailVerified"`
	PhoneVerified bool      `bson:"phoneVerified" json:"phoneVerified"`
	Provider      string    `bson:"provider" json:"provider"`
	CreatedAt     Timestamp `bson:"createdAt" json:"createdAt"`
	UpdatedAt     Timestamp `bson:"updatedAt" json:"updatedAt"`
}

// ProfileUpdate holds editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name    *string `json:"name"`
	Gender  *string `json:"gender"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	Pincode *string `json:"pincode"`
	Phone   *string `json:"phone"`
}

func (u ProfileUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Gender != nil {
		user.Gender = *u.Gender
	}
	if u.Address != nil {
		user.Address = *u.Address
	}
	if u.City != nil {
		user.City = *u.City
	}
	if u.Pincode != nil {
		user.Pincode = *u.Pincode
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
}

// Account holds login credentials. It is never sent to clients.
type Account struct {
	UID           string    `bson:"_id" json:"uid"`
	Email         string    `bson:"email" json:"email"`
	Name          string    `bson:"name" json:"name"`
	PasswordHash  string    `bson:"passwordHash" json:"-"`
	Role          string    `bson:"role" json:"role"`
	EmailVerified bool      `bson:"emailVerified" json:"emailVerified"`
	CreatedAt     Timestamp `bson:"createdAt" json:"createdAt"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUser is the identity echoed back on login
type SessionUser struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

// Session is a signed token and its expiry
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt Timestamp   `json:"expiresAt"`
	User      SessionUser `json:"user"`
}
