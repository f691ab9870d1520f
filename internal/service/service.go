// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Gateways / stores        → GitHub, the text-generation API, sessions
//
// WHY A SEPARATE SERVICE LAYER?
//  1. TESTING: business rules are tested with plain Go calls and fakes,
//     no HTTP requests and no real GitHub.
//  2. SEPARATION: handlers only know about HTTP (status codes, JSON);
//     services only know about the workflow and its rules.
//
// DEPENDENCY INJECTION:
// Every service takes interfaces (hosting.Gateway, textgen.Generator,
// session.Store), never concrete clients. server.go wires the real ones.
package service

import (
	"strings"

	"github.com/sakif/test-case-generator/internal/apperror"
)

// requireField returns a validation error if value is blank.
func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, field+" is required")
	}
	return nil
}
