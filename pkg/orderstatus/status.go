package orderstatus

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of an order.
type Status string

const (
	Confirmado Status = "confirmado"
	Preparando Status = "preparando"
	Listo      Status = "listo"
	Entregado  Status = "entregado"
	Cancelado  Status = "cancelado"
)

// Initial is the status every order is created with.
const Initial = Confirmado

var ErrUnknownStatus = errors.New("unknown order status")

var all = []Status{Confirmado, Preparando, Listo, Entregado, Cancelado}

func All() []Status {
	return append([]Status(nil), all...)
}

func Parse(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case Confirmado, Preparando, Listo, Entregado, Cancelado:
		return true
	}
	return false
}

// Terminal orders are kept for history and never change again.
func (s Status) Terminal() bool {
	return s == Entregado || s == Cancelado
}

// Step is the position on the customer's progress tracker, 0 when cancelled.
func (s Status) Step() int {
	switch s {
	case Confirmado:
		return 1
	case Preparando:
		return 2
	case Listo:
		return 3
	case Entregado:
		return 4
	}
	return 0
}

func (s Status) String() string {
	return string(s)
}
