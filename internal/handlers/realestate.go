package handlers

import (
	"errors"
	"net/http"
	"realestate-backend/internal/auth"
	"realestate-backend/internal/database"
	"realestate-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

type listingRequest struct {
	Title        string         `json:"title" validate:"required,max=256"`
	Description  string         `json:"description"`
	Price        float64        `json:"price" validate:"gt=0"`
	Address      models.Address `json:"address"`
	PropertyType string         `json:"propertyType" validate:"required,propertytype"`
	Size         float64        `json:"size" validate:"gt=0"`
	Bedrooms     int            `json:"bedrooms" validate:"gte=0"`
	Bathrooms    int            `json:"bathrooms" validate:"gte=0"`
	Features     []string       `json:"features"`
	Images       []string       `json:"images" validate:"dive,url"`
	Agent        models.Agent   `json:"agent"`
}

func (l listingRequest) listing() models.Listing {
	return models.Listing{
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Address:      l.Address,
		PropertyType: models.PropertyType(l.PropertyType),
		Size:         l.Size,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Features:     l.Features,
		Images:       l.Images,
		Agent:        l.Agent,
	}
}

func requestFromListing(l models.Listing) listingRequest {
	return listingRequest{
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Address:      l.Address,
		PropertyType: string(l.PropertyType),
		Size:         l.Size,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Features:     l.Features,
		Images:       l.Images,
		Agent:        l.Agent,
	}
}

// mergeListing copies every non-zero field of patch over l.
func mergeListing(l models.Listing, patch listingRequest) models.Listing {
	setString := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	setString(&l.Title, patch.Title)
	setString(&l.Description, patch.Description)
	setString(&l.Address.Street, patch.Address.Street)
	setString(&l.Address.City, patch.Address.City)
	setString(&l.Address.State, patch.Address.State)
	setString(&l.Address.PostalCode, patch.Address.PostalCode)
	setString(&l.Address.Country, patch.Address.Country)
	setString(&l.Agent.Contact, patch.Agent.Contact)

	if patch.PropertyType != "" {
		l.PropertyType = models.PropertyType(patch.PropertyType)
	}
	if patch.Price != 0 {
		l.Price = patch.Price
	}
	if patch.Size != 0 {
		l.Size = patch.Size
	}
	if patch.Bedrooms != 0 {
		l.Bedrooms = patch.Bedrooms
	}
	if patch.Bathrooms != 0 {
		l.Bathrooms = patch.Bathrooms
	}
	if patch.Features != nil {
		l.Features = patch.Features
	}
	if patch.Images != nil {
		l.Images = patch.Images
	}
	return l
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.store.ListListings(r.Context())
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, listings)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.store.FindListing(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "Real estate not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) AddListing(w http.ResponseWriter, r *http.Request) {
	var request listingRequest
	if !h.decode(w, r, &request) || !h.check(w, request) {
		return
	}

	owner, _ := auth.UserFromContext(r.Context())
	created, err := h.store.CreateListings(r.Context(), owner, []models.Listing{request.listing()})
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Real estate added",
		"realEstate": created[0],
	})
}

// AddListings stores either every listing in the body or none of them.
func (h *Handler) AddListings(w http.ResponseWriter, r *http.Request) {
	type Batch struct {
		RealEstates []listingRequest `json:"realEstates" validate:"required,min=1,max=100,dive"`
	}

	var batch Batch
	if !h.decode(w, r, &batch.RealEstates) || !h.check(w, batch) {
		return
	}

	listings := make([]models.Listing, len(batch.RealEstates))
	for i, request := range batch.RealEstates {
		listings[i] = request.listing()
	}

	owner, _ := auth.UserFromContext(r.Context())
	created, err := h.store.CreateListings(r.Context(), owner, listings)
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Real estates added",
		"realEstates": created,
	})
}

// UpdateListing only touches listings owned by the caller, others read as not found.
func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.UserFromContext(ctx)

	existing, err := h.store.FindListing(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) || (err == nil && existing.UserID != owner.ID) {
		h.writeMessage(w, http.StatusNotFound, "Real estate not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	var patch listingRequest
	if !h.decode(w, r, &patch) {
		return
	}

	updated := mergeListing(existing, patch)
	if !h.check(w, requestFromListing(updated)) {
		return
	}

	err = h.store.UpdateListing(ctx, updated)
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "Real estate not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Real estate updated",
		"realEstate": updated,
	})
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserFromContext(r.Context())

	err := h.store.DeleteListing(r.Context(), chi.URLParam(r, "id"), owner.ID)
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "Real estate not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeMessage(w, http.StatusOK, "Real estate deleted")
}
