package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func validationError(message string) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func conflictError(message string) *DomainError {
	return domainError(http.StatusBadRequest, "CONFLICT", message)
}

func unauthorizedError(message string) *DomainError {
	return domainError(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func notFoundError(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message)
}
