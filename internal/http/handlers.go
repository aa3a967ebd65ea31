package http

import (
	"net/http"
	"time"

	"parcela/internal/core"
	applog "parcela/internal/log"
)

// transactionPayload is the JSON shape of one stored transaction.
type transactionPayload struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	GroupID     string `json:"group_id,omitempty"`
	GroupKind   string `json:"group_kind,omitempty"`
	Position    int    `json:"position,omitempty"`
	GroupSize   int    `json:"group_size,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toTransactionPayload(tx core.Transaction) transactionPayload {
	p := transactionPayload{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		Amount:      tx.Amount.Decimal(),
		Date:        tx.Date.ISO(),
		Description: tx.Description,
		GroupID:     tx.GroupID,
		GroupKind:   string(tx.GroupKind),
		Position:    tx.Position,
		GroupSize:   tx.GroupSize,
		Frequency:   string(tx.Frequency),
	}
	if !tx.CreatedAt.IsZero() {
		p.CreatedAt = tx.CreatedAt.Format(time.RFC3339)
	}
	return p
}

func toTransactionPayloads(records []core.Transaction) []transactionPayload {
	payloads := make([]transactionPayload, len(records))
	for i, tx := range records {
		payloads[i] = toTransactionPayload(tx)
	}
	return payloads
}

type userPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	user, err := s.auth.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err, applog.OpRegister)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Payload(userPayload{ID: user.ID, Name: user.Name}).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	user, err := s.auth.VerifyCredentials(r.Context(), req.Name, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err, applog.OpLogin)
		return
	}

	NewJSONResponse().
		Payload(userPayload{ID: user.ID, Name: user.Name}).
		Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var req createTransactionRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	intent, err := req.ToIntent(user.ID)
	if err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}

	records, err := s.transactions.Create(r.Context(), intent)
	if err != nil {
		s.writeDomainError(w, r, err, applog.OpCreate)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Payload(map[string]any{"transactions": toTransactionPayloads(records)}).
		Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	filters := ParseListFilters(r.URL.Query())
	if filters.Kind != "" {
		if err := filters.Kind.Validate(); err != nil {
			s.writeDomainError(w, r, err, applog.OpList)
			return
		}
	}

	records, err := s.transactions.List(r.Context(), user.ID, filters)
	if err != nil {
		s.writeDomainError(w, r, err, applog.OpList)
		return
	}

	NewJSONResponse().
		Payload(map[string]any{"transactions": toTransactionPayloads(records)}).
		Write(w)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := ParseTransactionID(r)
	if err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	var req editTransactionRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	changes, err := req.ToChanges()
	if err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}

	scope := ParseScope(r.URL.Query())
	if err := s.mutations.Edit(r.Context(), user.ID, id, changes, scope); err != nil {
		s.writeDomainError(w, r, err, applog.OpUpdate)
		return
	}

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := ParseTransactionID(r)
	if err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	scope := ParseScope(r.URL.Query())
	deleted, err := s.mutations.Delete(r.Context(), user.ID, id, scope)
	if err != nil {
		s.writeDomainError(w, r, err, applog.OpDelete)
		return
	}

	NewJSONResponse().
		Payload(map[string]int64{"deleted": deleted}).
		Write(w)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request, user core.User) {
	asOf := core.Date{Time: time.Now()}
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
			return
		}
		asOf = parsed
	}

	estimate, err := s.forecasts.Estimate(r.Context(), user.ID, asOf)
	if err != nil {
		s.writeDomainError(w, r, err, applog.OpForecast)
		return
	}

	NewJSONResponse().
		Payload(map[string]string{
			"income":  estimate.Income.Decimal(),
			"expense": estimate.Expense.Decimal(),
			"as_of":   asOf.ISO(),
		}).
		Write(w)
}
