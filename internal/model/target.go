package model

import (
	"fmt"
	"strings"
)

type DeletionType string

const (
	DeletionTypeUser        DeletionType = "user"
	DeletionTypeRequirement DeletionType = "requirement"
	DeletionTypeTransaction DeletionType = "transaction"
)

func ParseDeletionType(s string) (DeletionType, error) {
	switch t := DeletionType(strings.ToLower(strings.TrimSpace(s))); t {
	case DeletionTypeUser, DeletionTypeRequirement, DeletionTypeTransaction:
		return t, nil
	}
	return "", fmt.Errorf("unknown deletion type %q", s)
}

// DeletionTarget is one deletable entity. The concrete variants are
// UserTarget, RequirementTarget and TransactionTarget; code that needs
// per-kind behaviour switches on the concrete type.
type DeletionTarget interface {
	Kind() DeletionType
	ID() int64
	isDeletionTarget()
}

type UserTarget struct{ UserID int64 }

type RequirementTarget struct{ RequirementID int64 }

type TransactionTarget struct{ TransactionID int64 }

func (t UserTarget) Kind() DeletionType        { return DeletionTypeUser }
func (t UserTarget) ID() int64                 { return t.UserID }
func (UserTarget) isDeletionTarget()           {}
func (t RequirementTarget) Kind() DeletionType { return DeletionTypeRequirement }
func (t RequirementTarget) ID() int64          { return t.RequirementID }
func (RequirementTarget) isDeletionTarget()    {}
func (t TransactionTarget) Kind() DeletionType { return DeletionTypeTransaction }
func (t TransactionTarget) ID() int64          { return t.TransactionID }
func (TransactionTarget) isDeletionTarget()    {}

func NewDeletionTarget(kind DeletionType, id int64) (DeletionTarget, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid target id %d", id)
	}
	switch kind {
	case DeletionTypeUser:
		return UserTarget{UserID: id}, nil
	case DeletionTypeRequirement:
		return RequirementTarget{RequirementID: id}, nil
	case DeletionTypeTransaction:
		return TransactionTarget{TransactionID: id}, nil
	}
	return nil, fmt.Errorf("unknown deletion type %q", kind)
}
