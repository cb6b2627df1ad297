package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/rsx/internal/models"
)

// Seed inserts every entity of seed in one transaction, parents before children.
func (r *RecordRepository) Seed(ctx context.Context, seed *models.Seed) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertArtist := r.dialect.Rebind("INSERT INTO artist (artist_id, first_name, last_name) VALUES (?, ?, ?)")
	for _, a := range seed.Artists {
		if _, err := tx.ExecContext(ctx, insertArtist, a.ID, a.FirstName, a.LastName); err != nil {
			return fmt.Errorf("failed to insert artist %d: %w", a.ID, err)
		}
	}

	insertShop := r.dialect.Rebind("INSERT INTO recordshop (recordshop_id, name, city) VALUES (?, ?, ?)")
	for _, s := range seed.Shops {
		if _, err := tx.ExecContext(ctx, insertShop, s.ID, s.Name, s.City); err != nil {
			return fmt.Errorf("failed to insert record shop %d: %w", s.ID, err)
		}
	}

	insertRecord := r.dialect.Rebind(`
		INSERT INTO record (record_id, artist_id, title, label, genre, rrp)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	for _, rec := range seed.Records {
		if _, err := tx.ExecContext(ctx, insertRecord, rec.ID, rec.ArtistID, rec.Title, rec.Label, rec.Genre, rec.RRP); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", rec.ID, err)
		}
	}

	insertCopy := r.dialect.Rebind("INSERT INTO recordcopy (copy_id, record_id, recordshop_id) VALUES (?, ?, ?)")
	for _, c := range seed.Copies {
		if _, err := tx.ExecContext(ctx, insertCopy, c.ID, c.RecordID, c.ShopID); err != nil {
			return fmt.Errorf("failed to insert record copy %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}
