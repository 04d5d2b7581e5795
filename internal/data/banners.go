package data

import (
	"context"
	"errors"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
)

// PriorityOffset parks rows far above any live priority while a range is being
// shifted, so the UNIQUE index never sees two rows on the same value.
const PriorityOffset = 1_000_000

var ErrInvalidPriority = errors.New("priority must be a positive integer")

type Banner struct {
	ID             int64     `json:"id" db:"id"`
	ImageReference string    `json:"image_reference" db:"image_reference"`
	Priority       int       `json:"priority" db:"priority"`
	CreatedAt      time.Time `json:"-" db:"created_at"`
	UpdatedAt      time.Time `json:"-" db:"updated_at"`
}

func ValidateBanner(v *validator.Validator, banner *Banner) {
	v.Check(banner.ImageReference != "", "image", "image file is required")
	v.Check(len(banner.ImageReference) <= 500, "image", "must not be more than 500 bytes long")
}

// BannerUpdate carries the optional parts of a banner change. A nil field is
// left untouched.
type BannerUpdate struct {
	Priority       *int
	ImageReference *string
}

// bannerStore is the storage seen by BannerModel. Every priority write goes
// through a bannerTx obtained from withTx.
type bannerStore interface {
	list(ctx context.Context) ([]*Banner, error)
	maxPriority(ctx context.Context) (int, error)
	get(ctx context.Context, id int64) (*Banner, error)
	withTx(ctx context.Context, fn func(tx bannerTx) error) error
}

type bannerTx interface {
	lock(ctx context.Context) error
	maxPriority(ctx context.Context) (int, error)
	get(ctx context.Context, id int64) (*Banner, error)
	// park adds PriorityOffset to every priority in [from, to). to <= 0 means no upper bound.
	park(ctx context.Context, from, to int) error
	// unpark brings rows parked from `from` back into range, shifted by delta.
	unpark(ctx context.Context, from, delta int) error
	insert(ctx context.Context, banner *Banner) error
	setPriority(ctx context.Context, id int64, priority int) error
	setImage(ctx context.Context, id int64, imageReference string) error
	delete(ctx context.Context, id int64) (int64, error)
}

type BannerModel struct {
	store bannerStore
}

// ====================================================================================
// Backoffice Functions
// ====================================================================================

// GetAll returns every banner ordered by ascending priority.
func (m BannerModel) GetAll(ctx context.Context) ([]*Banner, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return m.store.list(ctx)
}

// NextPriority returns the priority an appended banner would get.
func (m BannerModel) NextPriority(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	max, err := m.store.maxPriority(ctx)
	if err != nil {
		return 0, err
	}

	return max + 1, nil
}

// Get returns the banner with the given id, or ErrRecordNotFound.
func (m BannerModel) Get(ctx context.Context, id int64) (*Banner, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return m.store.get(ctx, id)
}

// Insert stores banner at the requested priority, moving every banner at or
// above it up by one. A requested priority that is not positive, or that lies
// past the end of the sequence, appends the banner instead.
func (m BannerModel) Insert(ctx context.Context, banner *Banner, requested int) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return m.store.withTx(ctx, func(tx bannerTx) error {
		if err := tx.lock(ctx); err != nil {
			return err
		}

		max, err := tx.maxPriority(ctx)
		if err != nil {
			return err
		}

		if requested <= 0 || requested > max {
			banner.Priority = max + 1
			return tx.insert(ctx, banner)
		}

		banner.Priority = requested

		if err := tx.park(ctx, requested, 0); err != nil {
			return err
		}

		if err := tx.insert(ctx, banner); err != nil {
			return err
		}

		return tx.unpark(ctx, requested, 1)
	})
}

// Update applies the image and priority parts of u atomically. changed is
// false when u describes the banner's current state.
func (m BannerModel) Update(ctx context.Context, id int64, u BannerUpdate) (banner *Banner, changed bool, err error) {
	if id < 1 {
		return nil, false, ErrRecordNotFound
	}

	if u.Priority != nil && *u.Priority <= 0 {
		return nil, false, ErrInvalidPriority
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = m.store.withTx(ctx, func(tx bannerTx) error {
		if err := tx.lock(ctx); err != nil {
			return err
		}

		current, err := tx.get(ctx, id)
		if err != nil {
			return err
		}
		banner = current

		if u.ImageReference != nil && *u.ImageReference != banner.ImageReference {
			if err := tx.setImage(ctx, id, *u.ImageReference); err != nil {
				return err
			}
			banner.ImageReference = *u.ImageReference
			changed = true
		}

		if u.Priority == nil {
			return nil
		}

		moved, err := move(ctx, tx, banner, *u.Priority)
		if err != nil {
			return err
		}

		changed = changed || moved
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return banner, changed, nil
}

// Move relocates a banner to priority p and re-sequences the banners between
// its old and new slot.
func (m BannerModel) Move(ctx context.Context, id int64, p int) (*Banner, bool, error) {
	return m.Update(ctx, id, BannerUpdate{Priority: &p})
}

// UpdateImage swaps the banner's image reference without touching its priority.
func (m BannerModel) UpdateImage(ctx context.Context, id int64, imageReference string) (*Banner, bool, error) {
	return m.Update(ctx, id, BannerUpdate{ImageReference: &imageReference})
}

// Delete removes a banner and closes the gap it leaves. The deleted banner is
// returned so the caller can release its image.
func (m BannerModel) Delete(ctx context.Context, id int64) (*Banner, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var banner *Banner

	err := m.store.withTx(ctx, func(tx bannerTx) error {
		if err := tx.lock(ctx); err != nil {
			return err
		}

		var err error
		banner, err = tx.get(ctx, id)
		if err != nil {
			return err
		}

		rowsAffected, err := tx.delete(ctx, id)
		if err != nil {
			return err
		}

		if rowsAffected == 0 {
			return ErrRecordNotFound
		}

		if err := tx.park(ctx, banner.Priority+1, 0); err != nil {
			return err
		}

		return tx.unpark(ctx, banner.Priority+1, -1)
	})
	if err != nil {
		return nil, err
	}

	return banner, nil
}

// move vacates the banner's slot by parking it on 0, shifts [p, current) up or
// (current, p] down, then drops the banner on p. A target past the end of the
// sequence is clamped to the last slot.
func move(ctx context.Context, tx bannerTx, banner *Banner, p int) (bool, error) {
	max, err := tx.maxPriority(ctx)
	if err != nil {
		return false, err
	}

	if p > max {
		p = max
	}

	current := banner.Priority
	if p == current {
		return false, nil
	}

	if err := tx.setPriority(ctx, banner.ID, 0); err != nil {
		return false, err
	}

	if p < current {
		if err := tx.park(ctx, p, current); err != nil {
			return false, err
		}
		if err := tx.unpark(ctx, p, 1); err != nil {
			return false, err
		}
	} else {
		if err := tx.park(ctx, current+1, p+1); err != nil {
			return false, err
		}
		if err := tx.unpark(ctx, current+1, -1); err != nil {
			return false, err
		}
	}

	if err := tx.setPriority(ctx, banner.ID, p); err != nil {
		return false, err
	}

	banner.Priority = p
	return true, nil
}
