package models

import (
	"errors"
	"fmt"
)

// Artist is a row of the artist relation.
type Artist struct {
	ID        int    `toml:"id"`
	FirstName string `toml:"first_name"`
	LastName  string `toml:"last_name"`
}

// RecordShop is a row of the recordshop relation.
type RecordShop struct {
	ID   int    `toml:"id"`
	Name string `toml:"name"`
	City string `toml:"city"`
}

// Record is a row of the record relation.
type Record struct {
	ID       int     `toml:"id"`
	ArtistID int     `toml:"artist_id"`
	Title    string  `toml:"title"`
	Label    string  `toml:"label"`
	Genre    string  `toml:"genre"`
	RRP      float64 `toml:"rrp"`
}

// RecordCopy is one physical copy of a record held by a shop.
type RecordCopy struct {
	ID       int `toml:"id"`
	RecordID int `toml:"record_id"`
	ShopID   int `toml:"shop_id"`
}

// Seed is a fixture of all four relations.
type Seed struct {
	Artists []Artist     `toml:"artists"`
	Shops   []RecordShop `toml:"shops"`
	Records []Record     `toml:"records"`
	Copies  []RecordCopy `toml:"copies"`
}

// Validate checks required fields and that every reference in the fixture points at an entity defined in it.
func (s *Seed) Validate() error {
	var errs []error

	artists := make(map[int]bool, len(s.Artists))
	for _, a := range s.Artists {
		if a.LastName == "" {
			errs = append(errs, fmt.Errorf("artist %d: last name is required", a.ID))
		}
		artists[a.ID] = true
	}

	shops := make(map[int]bool, len(s.Shops))
	for _, sh := range s.Shops {
		if sh.City == "" {
			errs = append(errs, fmt.Errorf("shop %d: city is required", sh.ID))
		}
		shops[sh.ID] = true
	}

	records := make(map[int]bool, len(s.Records))
	for _, r := range s.Records {
		if r.Title == "" {
			errs = append(errs, fmt.Errorf("record %d: title is required", r.ID))
		}
		if !artists[r.ArtistID] {
			errs = append(errs, fmt.Errorf("record %d: unknown artist %d", r.ID, r.ArtistID))
		}
		records[r.ID] = true
	}

	for _, c := range s.Copies {
		if !records[c.RecordID] {
			errs = append(errs, fmt.Errorf("copy %d: unknown record %d", c.ID, c.RecordID))
		}
		if !shops[c.ShopID] {
			errs = append(errs, fmt.Errorf("copy %d: unknown shop %d", c.ID, c.ShopID))
		}
	}

	return errors.Join(errs...)
}
