package identity

import (
	"errors"
	"fmt"
)

// Role describes which kind of account an identity refers to.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "seller"
	RoleCustomer Role = "customer"
)

// AdminID is the reserved room/recipient id of the singleton admin identity.
// Seller and customer constructors reject it so a real account id can never
// collide with the admin room.
const AdminID = "admin"

var (
	ErrEmptyID    = errors.New("identity: empty id")
	ErrReservedID = errors.New("identity: id collides with reserved admin id")
)

// Identity is the logical target of a notification: the singleton admin,
// a seller or a customer. The zero value is not a valid identity.
type Identity struct {
	role Role
	id   string
}

// Admin returns the singleton admin identity.
func Admin() Identity {
	return Identity{role: RoleAdmin, id: AdminID}
}

// Seller builds a seller identity from an account id.
func Seller(id string) (Identity, error) {
	if id == "" {
		return Identity{}, ErrEmptyID
	}
	if id == AdminID {
		return Identity{}, ErrReservedID
	}
	return Identity{role: RoleSeller, id: id}, nil
}

// Customer builds a customer identity from an account id.
func Customer(id string) (Identity, error) {
	if id == "" {
		return Identity{}, ErrEmptyID
	}
	if id == AdminID {
		return Identity{}, ErrReservedID
	}
	return Identity{role: RoleCustomer, id: id}, nil
}

// FromRole resolves a role/id pair, the shape carried in JWT claims.
// The id is ignored for admins.
func FromRole(role Role, id string) (Identity, error) {
	switch role {
	case RoleAdmin:
		return Admin(), nil
	case RoleSeller:
		return Seller(id)
	case RoleCustomer:
		return Customer(id)
	default:
		return Identity{}, fmt.Errorf("identity: unknown role %q", role)
	}
}

func (i Identity) Role() Role { return i.role }

// ID returns the account id, or AdminID for the admin identity.
func (i Identity) ID() string { return i.id }

// Room is the broadcast group name for this identity. The room name is the
// identity itself, so presence and routing compose without a mapping table.
func (i Identity) Room() string { return i.id }

func (i Identity) IsAdmin() bool { return i.role == RoleAdmin }

func (i Identity) IsZero() bool { return i.role == "" }

func (i Identity) String() string {
	if i.role == RoleAdmin {
		return "admin"
	}
	return string(i.role) + ":" + i.id
}
