package service

import (
	"github.com/google/uuid"

	"go-pos-rd/internal/ws"
)

// Actor identifies the authenticated user behind a mutation.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
	IP    string
}

func (a Actor) by() string {
	if a.ID == uuid.Nil {
		return ""
	}
	return a.ID.String()
}

func (a Actor) idPtr() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

func (a Actor) wsActor() *ws.Actor {
	if a.ID == uuid.Nil {
		return nil
	}
	return &ws.Actor{ID: a.ID.String(), Name: a.Name, Email: a.Email}
}
