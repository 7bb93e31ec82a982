package api

import (
	"errors"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/covenant-forge/covenant/internal/auth"
	"github.com/covenant-forge/covenant/internal/server"
	"github.com/covenant-forge/covenant/pkg/models"
)

// ContractRequest is the body for creating or updating a contract. On
// update, nil pointer fields are left unchanged.
type ContractRequest struct {
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Content      *string  `json:"content,omitempty"`
	ContractType *string  `json:"contractType,omitempty"`
	Status       *string  `json:"status,omitempty"`
	Value        *float64 `json:"value,omitempty"`
}

// Validate checks field values that have been provided.
func (r ContractRequest) Validate() error {
	statuses := make([]interface{}, len(models.ValidStatuses))
	for i, s := range models.ValidStatuses {
		statuses[i] = s
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(1, 255)),
		validation.Field(&r.Status, validation.In(statuses...)),
		validation.Field(&r.Value, validation.Min(0.0)),
	)
}

// ContractsHandler handles contract collection and resource requests.
//
// Endpoints:
//
//	GET    /api/v1/contracts
//	POST   /api/v1/contracts
//	GET    /api/v1/contracts/{id}
//	PATCH  /api/v1/contracts/{id}
//	DELETE /api/v1/contracts/{id}
//	GET    /api/v1/contracts/{id}/similar
func ContractsHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantStr, ok := auth.GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		tenantID, err := uuid.Parse(tenantStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		segments := parseResourcePath(r.URL.Path, "contracts")

		switch len(segments) {
		case 0:
			switch r.Method {
			case http.MethodGet:
				listContracts(srv, w, r, tenantID)
			case http.MethodPost:
				createContract(srv, w, r, tenantID)
			default:
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			}

		case 1:
			contractID, err := uuid.Parse(segments[0])
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid contract id")
				return
			}
			switch r.Method {
			case http.MethodGet:
				getContract(srv, w, r, tenantID, contractID)
			case http.MethodPatch:
				updateContract(srv, w, r, tenantID, contractID)
			case http.MethodDelete:
				deleteContract(srv, w, r, tenantID, contractID)
			default:
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			}

		case 2:
			if segments[1] != "similar" {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			if _, err := uuid.Parse(segments[0]); err != nil {
				writeError(w, http.StatusBadRequest, "invalid contract id")
				return
			}
			handleSimilar(srv, w, r, tenantStr, segments[0])

		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}

func listContracts(srv *server.Server, w http.ResponseWriter, r *http.Request, tenantID uuid.UUID) {
	q := srv.DB.WithContext(r.Context()).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if ct := r.URL.Query().Get("contract_type"); ct != "" {
		q = q.Where("contract_type = ?", ct)
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = n
	}

	var contracts []models.Contract
	if err := q.Limit(limit).Offset(offset).Find(&contracts).Error; err != nil {
		srv.Logger.Error("error listing contracts", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"contracts": contracts})
}

func createContract(srv *server.Server, w http.ResponseWriter, r *http.Request, tenantID uuid.UUID) {
	var req ContractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == nil || *req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	contract := models.Contract{
		TenantID: tenantID,
		Title:    *req.Title,
		Value:    req.Value,
	}
	if req.Description != nil {
		contract.Description = *req.Description
	}
	if req.Content != nil {
		contract.Content = *req.Content
	}
	if req.ContractType != nil {
		contract.ContractType = *req.ContractType
	}
	if req.Status != nil {
		contract.Status = *req.Status
	}

	if err := srv.DB.WithContext(r.Context()).Create(&contract).Error; err != nil {
		srv.Logger.Error("error creating contract", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	recordAudit(srv, r, tenantID, &contract.ID, "contract.created")
	srv.Indexer.Enqueue(contract.ID)

	writeJSON(w, http.StatusCreated, contract)
}

func getContract(srv *server.Server, w http.ResponseWriter, r *http.Request, tenantID, contractID uuid.UUID) {
	var contract models.Contract
	err := srv.DB.WithContext(r.Context()).
		Where("tenant_id = ? AND id = ?", tenantID, contractID).
		First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "contract not found")
			return
		}
		srv.Logger.Error("error fetching contract", "contract_id", contractID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, contract)
}

func updateContract(srv *server.Server, w http.ResponseWriter, r *http.Request, tenantID, contractID uuid.UUID) {
	var req ContractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}

	var contract models.Contract
	err := srv.DB.WithContext(r.Context()).
		Where("tenant_id = ? AND id = ?", tenantID, contractID).
		First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "contract not found")
			return
		}
		srv.Logger.Error("error fetching contract", "contract_id", contractID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Title != nil {
		contract.Title = *req.Title
	}
	if req.Description != nil {
		contract.Description = *req.Description
	}
	if req.Content != nil {
		contract.Content = *req.Content
	}
	if req.ContractType != nil {
		contract.ContractType = *req.ContractType
	}
	if req.Status != nil {
		contract.Status = *req.Status
	}
	if req.Value != nil {
		contract.Value = req.Value
	}

	if err := srv.DB.WithContext(r.Context()).Save(&contract).Error; err != nil {
		srv.Logger.Error("error updating contract", "contract_id", contractID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	recordAudit(srv, r, tenantID, &contract.ID, "contract.updated")

	// Status-only edits still need the keyword index refreshed so the
	// status filter stays accurate. Unchanged content is cheap to re-index
	// because the content hash short-circuits the embedding step.
	srv.Indexer.Enqueue(contract.ID)

	writeJSON(w, http.StatusOK, contract)
}

func deleteContract(srv *server.Server, w http.ResponseWriter, r *http.Request, tenantID, contractID uuid.UUID) {
	res := srv.DB.WithContext(r.Context()).
		Where("tenant_id = ? AND id = ?", tenantID, contractID).
		Delete(&models.Contract{})
	if res.Error != nil {
		srv.Logger.Error("error deleting contract", "contract_id", contractID, "error", res.Error)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "contract not found")
		return
	}

	recordAudit(srv, r, tenantID, &contractID, "contract.deleted")

	if err := srv.Indexer.RemoveContract(r.Context(), tenantID, contractID); err != nil {
		srv.Logger.Warn("error removing contract from indexes",
			"contract_id", contractID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// recordAudit writes an append-only audit row. Failures are logged and do
// not fail the request.
func recordAudit(srv *server.Server, r *http.Request, tenantID uuid.UUID, contractID *uuid.UUID, action string) {
	actor := "unknown"
	if sub, ok := auth.GetSubject(r.Context()); ok && sub != "" {
		actor = sub
	}
	log := models.AuditLog{
		TenantID:   tenantID,
		ContractID: contractID,
		Actor:      actor,
		Action:     action,
	}
	if err := srv.DB.WithContext(r.Context()).Create(&log).Error; err != nil {
		srv.Logger.Warn("error writing audit log",
			"action", action, "contract_id", contractID, "error", err)
	}
}
