package model

import (
	"strings"
	"time"
)

type ItemStatus string

const (
	ItemStatusOnSale  ItemStatus = "ON_SALE"
	ItemStatusSoldOut ItemStatus = "SOLD_OUT"
)

// ParseItemStatus accepts the wire values plus a few friendly spellings used on the CLI.
func ParseItemStatus(s string) (ItemStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "ON_SALE", "ONSALE", "SALE":
		return ItemStatusOnSale, true
	case "SOLD_OUT", "SOLDOUT", "SOLD":
		return ItemStatusSoldOut, true
	default:
		return "", false
	}
}

// Item is the backend's item resource. Only ID/Name/Description/Price are required by the
// client; the rest is carried through for display and CLI output.
type Item struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int        `json:"price"`
	Status      ItemStatus `json:"status,omitempty"`
	UserID      int        `json:"user_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// NewItem is the body of POST /items.
//
// Price is a pointer so an unparsable price input is sent as JSON null.
type NewItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       *int   `json:"price"`
}

// ItemUpdate is the body of PUT /items/{id}. Nil fields are left unchanged by the backend.
type ItemUpdate struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Price       *int        `json:"price,omitempty"`
	Status      *ItemStatus `json:"status,omitempty"`
}

func (u ItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Status == nil
}

// User is the persisted "currentUser" entry.
type User struct {
	Username string `json:"username"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
