package models

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleUser   Role = "user"
)

// Roles is the closed set a user's role is drawn from.
var Roles = []Role{RoleAdmin, RoleEditor, RoleViewer, RoleUser}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID        int64  `json:"id,string"`
	UserName  string `json:"username"`
	Password  []byte `json:"-"`
	Role      Role   `json:"role"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

type Message struct {
	ID         int64  `json:"id,string"`
	SenderID   int64  `json:"senderId,string"`
	ReceiverID int64  `json:"receiverId,string"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
	Read       bool   `json:"read"`
}

type Conversation struct {
	UserID   int64     `json:"userId,string"`
	Messages []Message `json:"messages"`
}

type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyHouse     PropertyType = "House"
	PropertyCondo     PropertyType = "Condo"
	PropertyLand      PropertyType = "Land"
)

var PropertyTypes = []PropertyType{PropertyApartment, PropertyHouse, PropertyCondo, PropertyLand}

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type Agent struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type Listing struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Price        float64      `json:"price"`
	Address      Address      `json:"address"`
	PropertyType PropertyType `json:"propertyType"`
	Size         float64      `json:"size"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`
	ListedDate   int64        `json:"listedDate"`
	Features     []string     `json:"features"`
	Images       []string     `json:"images"`
	Agent        Agent        `json:"agent"`
	UserID       int64        `json:"user,string"`
}
