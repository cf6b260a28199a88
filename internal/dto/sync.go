package dto

import "github.com/enersync/utility_sync_app/internal/core/entity"

// CycleSummary reports the outcome of one reconciliation cycle for one
// managed account.
type CycleSummary struct {
	ManagedAccountID string `json:"managed_account_id"`
	AccountsCreated  int    `json:"accounts_created"`
	MetersCreated    int    `json:"meters_created"`
	InvoicesCreated  int    `json:"invoices_created"`
	Error            string `json:"error,omitempty"`
}

// Created reports how many entities the cycle materialized in total.
func (s CycleSummary) Created() int {
	return s.AccountsCreated + s.MetersCreated + s.InvoicesCreated
}

// EntityResponse is the host-visible snapshot of one entity.
type EntityResponse struct {
	UniqueID   string         `json:"unique_id"`
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Unit       string         `json:"unit,omitempty"`
	Icon       string         `json:"icon,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// ToEntityResponse converts an entity snapshot to its API representation.
func ToEntityResponse(s entity.Snapshot) EntityResponse {
	return EntityResponse{
		UniqueID:   s.UniqueID,
		Name:       s.Name,
		State:      s.State,
		Unit:       s.Unit,
		Icon:       s.Icon,
		Attributes: s.Attributes,
	}
}

// ToEntityResponses converts a slice of snapshots.
func ToEntityResponses(snaps []entity.Snapshot) []EntityResponse {
	out := make([]EntityResponse, len(snaps))
	for i, s := range snaps {
		out[i] = ToEntityResponse(s)
	}
	return out
}
