package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"realestate-backend/internal/models"

	"github.com/google/uuid"
)

const listingColumns = `id, user_id, title, description, price, street, city, state, postal_code, country,
	property_type, size, bedrooms, bathrooms, listed_date, features, images, agent_name, agent_contact`

func scanListing(row rowScanner) (models.Listing, error) {
	var l models.Listing
	var propertyType, features, images string

	err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.Price,
		&l.Address.Street, &l.Address.City, &l.Address.State, &l.Address.PostalCode, &l.Address.Country,
		&propertyType, &l.Size, &l.Bedrooms, &l.Bathrooms, &l.ListedDate, &features, &images,
		&l.Agent.Name, &l.Agent.Contact)
	if err != nil {
		return l, err
	}

	l.PropertyType = models.PropertyType(propertyType)

	if err := json.Unmarshal([]byte(features), &l.Features); err != nil {
		return l, fmt.Errorf("decoding features of listing %s: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(images), &l.Images); err != nil {
		return l, fmt.Errorf("decoding images of listing %s: %w", l.ID, err)
	}
	return l, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	bytes, err := json.Marshal(values)
	return string(bytes), err
}

func listingArgs(l models.Listing) ([]any, error) {
	features, err := encodeList(l.Features)
	if err != nil {
		return nil, err
	}
	images, err := encodeList(l.Images)
	if err != nil {
		return nil, err
	}

	return []any{l.Title, l.Description, l.Price,
		l.Address.Street, l.Address.City, l.Address.State, l.Address.PostalCode, l.Address.Country,
		string(l.PropertyType), l.Size, l.Bedrooms, l.Bathrooms, l.ListedDate, features, images,
		l.Agent.Name, l.Agent.Contact}, nil
}

// CreateListings inserts all listings for the owner in one transaction, either all of them are
// stored or none. Ids, listing date and agent are assigned here.
func (s *Store) CreateListings(ctx context.Context, owner models.User, listings []models.Listing) ([]models.Listing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now().UnixMilli()
	created := make([]models.Listing, 0, len(listings))

	for _, l := range listings {
		l.ID = uuid.NewString()
		l.UserID = owner.ID
		l.ListedDate = now
		l.Agent = models.Agent{Name: owner.UserName, Contact: l.Agent.Contact}
		if l.Features == nil {
			l.Features = []string{}
		}
		if l.Images == nil {
			l.Images = []string{}
		}

		args, err := listingArgs(l)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO listings ("+listingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			append([]any{l.ID, l.UserID}, args...)...)
		if err != nil {
			return nil, fmt.Errorf("inserting listing: %w", err)
		}

		created = append(created, l)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) ListListings(ctx context.Context) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+listingColumns+" FROM listings ORDER BY listed_date, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *Store) FindListing(ctx context.Context, id string) (models.Listing, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id = ?", id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, ErrNotFound
	} else if err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

// UpdateListing overwrites the stored listing, only when it belongs to l.UserID.
func (s *Store) UpdateListing(ctx context.Context, l models.Listing) error {
	args, err := listingArgs(l)
	if err != nil {
		return err
	}

	query := `
		UPDATE listings SET title = ?, description = ?, price = ?, street = ?, city = ?, state = ?,
			postal_code = ?, country = ?, property_type = ?, size = ?, bedrooms = ?, bathrooms = ?,
			listed_date = ?, features = ?, images = ?, agent_name = ?, agent_contact = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, append(args, l.ID, l.UserID)...)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func (s *Store) DeleteListing(ctx context.Context, id string, ownerID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}
