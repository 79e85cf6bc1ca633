package orderstatus

import (
	"errors"
	"fmt"
)

type Actor string

const (
	Staff    Actor = "staff"
	Customer Actor = "customer"
)

// ActorForRole maps the identity role claim onto a lifecycle actor.
func ActorForRole(role string) Actor {
	if role == "admin" {
		return Staff
	}
	return Customer
}

var (
	ErrTerminal          = errors.New("order is in a terminal state")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrForbidden         = errors.New("actor may not perform this transition")
)

type edge struct {
	from, to Status
}

type rule struct {
	staff bool
	owner bool
}

var table = map[edge]rule{
	{Confirmado, Preparando}: {staff: true},
	{Confirmado, Cancelado}:  {staff: true, owner: true},
	{Preparando, Listo}:      {staff: true},
	{Preparando, Cancelado}:  {staff: true},
	{Listo, Entregado}:       {staff: true},
}

// Validate is the only place transition rules are decided.
func Validate(from, to Status, actor Actor, isOwner bool) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminal, from)
	}
	r, ok := table[edge{from, to}]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	switch {
	case actor == Staff && r.staff:
		return nil
	case actor == Customer && r.owner && isOwner:
		return nil
	}
	return fmt.Errorf("%w: %s cannot move %s -> %s", ErrForbidden, actor, from, to)
}

func CanTransition(from, to Status, actor Actor, isOwner bool) bool {
	return Validate(from, to, actor, isOwner) == nil
}

// Sources lists the states from which actor may move an owned order into to.
func Sources(to Status, actor Actor) []Status {
	var out []Status
	for _, from := range all {
		if CanTransition(from, to, actor, true) {
			out = append(out, from)
		}
	}
	return out
}

// Next lists the states actor may move an order into from its current state.
func Next(from Status, actor Actor, isOwner bool) []Status {
	out := []Status{}
	for _, to := range all {
		if CanTransition(from, to, actor, isOwner) {
			out = append(out, to)
		}
	}
	return out
}
