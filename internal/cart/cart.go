package cart

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
)

// Product is the slice of reference data the cart needs to build a line.
type Product struct {
	ID      string
	Name    string
	Price   float64
	Station string
}

// Line is one cart entry. Lines are keyed by (ProductID, Notes): the
// same product with the same notes merges quantity, differing notes
// stay separate lines.
type Line struct {
	ProductID string   `json:"product_id" bson:"product_id"`
	Name      string   `json:"name" bson:"name"`
	UnitPrice float64  `json:"unit_price" bson:"unit_price"`
	Quantity  int      `json:"quantity" bson:"quantity"`
	Notes     string   `json:"notes,omitempty" bson:"notes,omitempty"`
	Station   string   `json:"station,omitempty" bson:"station,omitempty"`
	Addons    []string `json:"addons,omitempty" bson:"addons,omitempty"`
}

func (l Line) LineTotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// Snapshot is an immutable copy of the cart state handed to observers
// and to the persistence layer.
type Snapshot struct {
	Lines          []Line  `json:"lines" bson:"lines"`
	CouponCode     string  `json:"coupon_code,omitempty" bson:"coupon_code,omitempty"`
	DiscountAmount float64 `json:"discount_amount" bson:"discount_amount"`
}

// Subtotal sums line totals.
func (s Snapshot) Subtotal() float64 {
	total := 0.0
	for _, l := range s.Lines {
		total += l.LineTotal()
	}
	return total
}

// Count returns the total quantity across lines.
func (s Snapshot) Count() int {
	count := 0
	for _, l := range s.Lines {
		count += l.Quantity
	}
	return count
}

// Repo persists carts under a namespaced key so they survive reloads.
type Repo interface {
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, key string, snap Snapshot) error
	Delete(ctx context.Context, key string) error
}

// Store owns the pending cart for one customer session. All mutation
// goes through its API; consumers observe changes via Subscribe instead
// of sharing state.
type Store struct {
	mu          sync.Mutex
	key         string
	lines       []Line
	couponCode  string
	discount    float64
	repo        Repo
	logger      apt.Logger
	subscribers []func(Snapshot)
}

// NewStore builds a cart store for the given persistence key. When a
// repo is supplied the previous cart state is hydrated from it.
func NewStore(ctx context.Context, key string, repo Repo, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	s := &Store{key: key, repo: repo, logger: logger}

	if repo != nil {
		snap, err := repo.Load(ctx, key)
		if err != nil {
			logger.Error("cannot hydrate cart", "key", key, "error", err)
		} else if snap != nil {
			s.lines = append(s.lines, snap.Lines...)
			s.couponCode = snap.CouponCode
			s.discount = snap.DiscountAmount
		}
	}

	return s
}

// AttachRepo installs persistence after construction, for callers whose
// storage connects later in the lifecycle. When the store is still
// empty the previously persisted cart is hydrated.
func (s *Store) AttachRepo(ctx context.Context, repo Repo) {
	if repo == nil {
		return
	}

	s.mu.Lock()
	s.repo = repo
	empty := len(s.lines) == 0 && s.couponCode == ""
	s.mu.Unlock()

	if !empty {
		return
	}

	snap, err := repo.Load(ctx, s.key)
	if err != nil {
		s.logger.Error("cannot hydrate cart", "key", s.key, "error", err)
		return
	}
	if snap == nil {
		return
	}

	s.mu.Lock()
	s.lines = append(s.lines, snap.Lines...)
	s.couponCode = snap.CouponCode
	s.discount = snap.DiscountAmount
	s.mu.Unlock()
}

// Subscribe registers an observer called after every committed mutation
// with a snapshot of the new state.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// AddItem merges quantity into an existing (product, notes) line or
// appends a new one. Quantities below 1 are treated as 1.
func (s *Store) AddItem(ctx context.Context, p Product, quantity int, notes string) {
	if quantity < 1 {
		quantity = 1
	}

	s.mutate(ctx, func() {
		for i := range s.lines {
			if s.lines[i].ProductID == p.ID && s.lines[i].Notes == notes {
				s.lines[i].Quantity += quantity
				return
			}
		}
		s.lines = append(s.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  quantity,
			Notes:     notes,
			Station:   p.Station,
		})
	})
}

// UpdateQuantity sets the quantity of a (product, notes) line exactly.
// Zero or negative removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int, notes string) {
	s.mutate(ctx, func() {
		if quantity <= 0 {
			s.removeLocked(productID, notes)
			return
		}
		for i := range s.lines {
			if s.lines[i].ProductID == productID && s.lines[i].Notes == notes {
				s.lines[i].Quantity = quantity
				return
			}
		}
	})
}

// RemoveItem drops a (product, notes) line.
func (s *Store) RemoveItem(ctx context.Context, productID, notes string) {
	s.mutate(ctx, func() {
		s.removeLocked(productID, notes)
	})
}

// Clear empties the cart and resets coupon state in the same mutation.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, func() {
		s.lines = nil
		s.couponCode = ""
		s.discount = 0
	})
}

// ApplyCoupon validates code against the rule set and installs it.
// Applying a second coupon replaces the active one. The returned error
// carries the user-visible rejection reason.
func (s *Store) ApplyCoupon(ctx context.Context, code, orderType string) error {
	s.mu.Lock()
	subtotal := Snapshot{Lines: s.lines}.Subtotal()
	s.mu.Unlock()

	discount, err := ValidateCoupon(code, orderType, subtotal)
	if err != nil {
		return err
	}

	s.mutate(ctx, func() {
		s.couponCode = normalizeCode(code)
		s.discount = discount
	})
	return nil
}

// RemoveCoupon clears code and discount together.
func (s *Store) RemoveCoupon(ctx context.Context) {
	s.mutate(ctx, func() {
		s.couponCode = ""
		s.discount = 0
	})
}

// Snapshot returns a copy of the current cart state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return Snapshot{
		Lines:          lines,
		CouponCode:     s.couponCode,
		DiscountAmount: s.discount,
	}
}

func (s *Store) removeLocked(productID, notes string) {
	for i := range s.lines {
		if s.lines[i].ProductID == productID && s.lines[i].Notes == notes {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

// mutate runs fn under the lock, persists the result, and notifies
// subscribers with the committed snapshot.
func (s *Store) mutate(ctx context.Context, fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	repo := s.repo
	subscribers := make([]func(Snapshot), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	if repo != nil {
		if err := repo.Save(ctx, s.key, snap); err != nil {
			s.logger.Error("cannot persist cart", "key", s.key, "error", err)
		}
	}

	for _, fn := range subscribers {
		fn(snap)
	}
}
