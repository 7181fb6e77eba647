package domain

import (
	"time"

	"github.com/google/uuid"
)

type ToastLevel string

const (
	ToastInfo  ToastLevel = "info"
	ToastError ToastLevel = "error"
)

// Toast is a transient, non-blocking notification shown to the operator.
type Toast struct {
	ID        string     `json:"id"`
	Level     ToastLevel `json:"level"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewToast(level ToastLevel, message string) Toast {
	return Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

func InfoToast(message string) Toast {
	return NewToast(ToastInfo, message)
}

func ErrorToast(message string) Toast {
	return NewToast(ToastError, message)
}
