package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"venuebook/internal/app/uow"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

type venueFixture struct {
	ID         string            `json:"id"`
	Owner      string            `json:"owner"`
	Name       string            `json:"name"`
	City       string            `json:"city"`
	Address    string            `json:"address"`
	Capacity   int               `json:"capacity"`
	BasePrice  int64             `json:"base_price"`
	Facilities []facilityFixture `json:"facilities"`
}

type facilityFixture struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ExtraPrice int64  `json:"extra_price"`
	Available  bool   `json:"available"`
}

// loadVenueFixtures seeds active venues from a JSON file. Venues already stored are left
// untouched, so the import can run on every start.
func loadVenueFixtures(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("venue fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []venueFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	for _, fx := range fixtures {
		params := domainvenue.CreateParams{
			ID:        domainvenue.ID(fx.ID),
			Owner:     domainvenue.OwnerID(fx.Owner),
			Name:      fx.Name,
			City:      fx.City,
			Address:   fx.Address,
			Capacity:  fx.Capacity,
			BasePrice: money.Must(fx.BasePrice, money.DefaultCurrency),
			Now:       now,
		}
		for _, f := range fx.Facilities {
			params.Facilities = append(params.Facilities, domainvenue.FacilityParams{
				ID:         domainvenue.FacilityID(f.ID),
				Name:       f.Name,
				ExtraPrice: money.Must(f.ExtraPrice, money.DefaultCurrency),
				Available:  f.Available,
			})
		}
		if err := importVenue(ctx, factory, params, now); err != nil {
			logger.Error("venue fixture skipped", "venue_id", fx.ID, "error", err)
			continue
		}
		logger.Info("venue fixture imported", "venue_id", fx.ID)
	}
	return nil
}

func importVenue(ctx context.Context, factory uow.UoWFactory, params domainvenue.CreateParams, now time.Time) error {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	ctx = uow.Bind(ctx, unit)
	defer unit.Rollback(ctx)

	if _, err := unit.Venues().ByID(ctx, params.ID); err == nil {
		return nil
	} else if !errors.Is(err, domainvenue.ErrNotFound) {
		return err
	}
	v, err := domainvenue.New(params)
	if err != nil {
		return err
	}
	if err := v.Moderate(domainvenue.StatusActive, now); err != nil {
		return err
	}
	if err := unit.Venues().Save(ctx, v); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

func defaultVenueFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "venues.json"),
		filepath.Join("..", "..", "data", "venues.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
