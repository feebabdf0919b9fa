package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"hotelier/internal/adapters/observability"
	"hotelier/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func keyColumn(kind domain.KeyKind) string {
	if kind == domain.KeyBusiness {
		return "hotel_id"
	}
	return "id"
}

func (r *Repo) Insert(ctx context.Context, h domain.Hotel) error {
	fac, _ := json.Marshal(h.Facilities)
	imgs, _ := json.Marshal(h.Images)
	_, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.ID,
		h.HotelID,
		h.OwnerID,
		h.Name,
		h.City,
		h.Country,
		h.Description,
		h.Type,
		h.PricePerNight,
		string(fac),
		string(imgs),
		h.Version,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert hotel: %w", err)
	}
	return nil
}

func (r *Repo) FindByKey(ctx context.Context, kind domain.KeyKind, key, owner string) (domain.Hotel, error) {
	q := findHotelSQLPrefix + keyColumn(kind) + " = ?"
	args := []any{key}
	if owner != "" {
		q += " AND owner_id = ?"
		args = append(args, owner)
	}
	// Business keys are not unique; pick a deterministic first match.
	q += " ORDER BY created_at, id LIMIT 1"

	row := r.db.QueryRowContext(ctx, q, args...)
	h, err := scanHotel(row)
	if err == sql.ErrNoRows {
		return domain.Hotel{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("find hotel: %w", err)
	}
	return h, nil
}

// Replace is keyed on whichever column matched at resolve time and guarded by
// the record version. Business keys are not unique, so a business-keyed write
// is additionally pinned to h.ID — the resolved row — or a single UPDATE could
// clobber every duplicate sharing the key and version. Zero rows hit is
// disambiguated into ErrNotFound (row gone) vs ErrConflict (version moved
// under us).
func (r *Repo) Replace(ctx context.Context, kind domain.KeyKind, key, owner string, h domain.Hotel) error {
	fac, _ := json.Marshal(h.Facilities)
	imgs, _ := json.Marshal(h.Images)

	q := replaceHotelSQLPrefix + keyColumn(kind) + " = ? AND version = ?"
	args := []any{
		h.HotelID,
		h.Name,
		h.City,
		h.Country,
		h.Description,
		h.Type,
		h.PricePerNight,
		string(fac),
		string(imgs),
		h.UpdatedAt,
		key,
		h.Version,
	}
	if kind == domain.KeyBusiness {
		q += " AND id = ?"
		args = append(args, h.ID)
	}
	if owner != "" {
		q += " AND owner_id = ?"
		args = append(args, owner)
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("replace hotel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace hotel: %w", err)
	}
	if n > 0 {
		return nil
	}

	existsQ := "SELECT 1 FROM hotels WHERE " + keyColumn(kind) + " = ?"
	existsArgs := []any{key}
	if kind == domain.KeyBusiness {
		existsQ += " AND id = ?"
		existsArgs = append(existsArgs, h.ID)
	}
	if owner != "" {
		existsQ += " AND owner_id = ?"
		existsArgs = append(existsArgs, owner)
	}
	var one int
	switch err := r.db.QueryRowContext(ctx, existsQ, existsArgs...).Scan(&one); err {
	case nil:
		observability.ReplaceConflicts.Inc()
		return domain.ErrConflict
	case sql.ErrNoRows:
		return domain.ErrNotFound
	default:
		return fmt.Errorf("replace hotel: %w", err)
	}
}

func (r *Repo) List(ctx context.Context, owner string, limit int) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("list hotels: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(row rowScanner) (domain.Hotel, error) {
	var h domain.Hotel
	var facJSON, imgJSON []byte
	if err := row.Scan(
		&h.ID,
		&h.HotelID,
		&h.OwnerID,
		&h.Name,
		&h.City,
		&h.Country,
		&h.Description,
		&h.Type,
		&h.PricePerNight,
		&facJSON,
		&imgJSON,
		&h.Version,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return domain.Hotel{}, err
	}
	_ = json.Unmarshal(facJSON, &h.Facilities)
	_ = json.Unmarshal(imgJSON, &h.Images)
	return h, nil
}
