package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tamjidzihan/beakling/api/responses"
	addrsvc "github.com/tamjidzihan/beakling/internal/addresses"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/logger"
)

type addressResponse struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Company      string    `json:"company,omitempty"`
	AddressLine1 string    `json:"address_line_1"`
	AddressLine2 string    `json:"address_line_2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	Phone        string    `json:"phone,omitempty"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func newAddressResponse(a models.Address) addressResponse {
	return addressResponse{
		ID:           a.ID,
		Type:         a.Type.String(),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Company:      a.Company,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		Phone:        a.Phone,
		IsDefault:    a.IsDefault,
		CreatedAt:    a.CreatedAt,
	}
}

// AddressesList returns the caller's address book, defaults first.
func AddressesList(repo addrsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.ListByOwner(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]addressResponse, 0, len(list))
		for _, a := range list {
			out = append(out, newAddressResponse(a))
		}
		responses.WriteSuccess(w, map[string]any{"addresses": out})
	}
}
