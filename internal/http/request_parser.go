// Package http provides the JSON API server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: JSON bodies, amount and date fields, and query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"parcela/internal/core"
	"parcela/internal/services"
)

// maxBodyBytes caps request bodies; the largest legitimate request is a
// create intent, well under a kilobyte.
const maxBodyBytes = 1 << 16

var errMalformedBody = errors.New("malformed request body")

// DecodeJSONBody reads and unmarshals the request body into dst.
func DecodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errMalformedBody
	}
	if len(body) == 0 {
		return errMalformedBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errMalformedBody
	}
	return nil
}

// credentialsRequest is the body of register and login calls.
type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// createTransactionRequest is the body of a create call. Exactly one of
// Amount, Installments or Recurring must be set.
type createTransactionRequest struct {
	Kind         string             `json:"kind"`
	Description  string             `json:"description"`
	Date         string             `json:"date"`
	Amount       string             `json:"amount,omitempty"`
	Installments *installmentsField `json:"installments,omitempty"`
	Recurring    *recurringField    `json:"recurring,omitempty"`
}

type installmentsField struct {
	Total string `json:"total"`
	Count int    `json:"count"`
}

type recurringField struct {
	Amount    string `json:"amount"`
	Frequency string `json:"frequency"`
	Count     int    `json:"count"`
}

// ToIntent converts the request body into a service intent, validating
// amounts and the date along the way.
func (req createTransactionRequest) ToIntent(userID int64) (services.Intent, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return services.Intent{}, fmt.Errorf("date: %w", err)
	}

	intent := services.Intent{
		UserID:      userID,
		Kind:        core.TransactionKind(strings.TrimSpace(req.Kind)),
		Description: req.Description,
		StartDate:   date,
	}

	if req.Amount != "" {
		cents, err := core.ParseDecimalToCents(req.Amount)
		if err != nil {
			return services.Intent{}, fmt.Errorf("amount %q: %w", req.Amount, err)
		}
		intent.Simple = &services.SimpleIntent{Amount: core.Money{Cents: cents}}
	}

	if req.Installments != nil {
		cents, err := core.ParseDecimalToCents(req.Installments.Total)
		if err != nil {
			return services.Intent{}, fmt.Errorf("installment total %q: %w", req.Installments.Total, err)
		}
		intent.Installment = &services.InstallmentIntent{
			Total: core.Money{Cents: cents},
			Count: req.Installments.Count,
		}
	}

	if req.Recurring != nil {
		cents, err := core.ParseDecimalToCents(req.Recurring.Amount)
		if err != nil {
			return services.Intent{}, fmt.Errorf("recurring amount %q: %w", req.Recurring.Amount, err)
		}
		intent.Recurring = &services.RecurringIntent{
			PerOccurrence: core.Money{Cents: cents},
			Frequency:     core.Frequency(strings.TrimSpace(req.Recurring.Frequency)),
			Count:         req.Recurring.Count,
		}
	}

	return intent, nil
}

// editTransactionRequest is the body of an edit call. Absent fields are left
// untouched.
type editTransactionRequest struct {
	Amount      *string `json:"amount,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	Kind        *string `json:"kind,omitempty"`
}

// ToChanges converts the request body into a partial update.
func (req editTransactionRequest) ToChanges() (services.Changes, error) {
	var changes services.Changes

	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			return services.Changes{}, fmt.Errorf("amount %q: %w", *req.Amount, err)
		}
		changes.Amount = &core.Money{Cents: cents}
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			return services.Changes{}, fmt.Errorf("date: %w", err)
		}
		changes.Date = &date
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		changes.Description = &desc
	}
	if req.Kind != nil {
		kind := core.TransactionKind(strings.TrimSpace(*req.Kind))
		changes.Kind = &kind
	}

	return changes, nil
}

// ParseScope extracts the mutation scope from query parameters, defaulting
// to individual when absent.
func ParseScope(query url.Values) services.Scope {
	s := strings.TrimSpace(query.Get("scope"))
	if s == "" {
		return services.ScopeIndividual
	}
	return services.Scope(s)
}

// ParseListFilters extracts listing filters from query parameters.
func ParseListFilters(query url.Values) services.Filters {
	return services.Filters{
		Search: strings.TrimSpace(query.Get("search")),
		Kind:   core.TransactionKind(strings.TrimSpace(query.Get("kind"))),
		SortBy: strings.TrimSpace(query.Get("sort_by")),
		Order:  strings.TrimSpace(query.Get("order")),
	}
}

// ParseTransactionID extracts the numeric record id from the path value.
func ParseTransactionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid transaction id %q", r.PathValue("id"))
	}
	return id, nil
}
