package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"inkverse/internal/service/commerce/domain"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeStock struct {
	mu       sync.Mutex
	sold     map[string]int
	denyNext bool
	released map[string]int
}

func newFakeStock() *fakeStock {
	return &fakeStock{sold: map[string]int{}, released: map[string]int{}}
}

func (f *fakeStock) Reserve(_ context.Context, productID string, qty, limit, baselineSold int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyNext {
		f.denyNext = false
		return false, nil
	}
	sold, ok := f.sold[productID]
	if !ok {
		sold = baselineSold
	}
	if sold+qty > limit {
		return false, nil
	}
	f.sold[productID] = sold + qty
	return true, nil
}

func (f *fakeStock) Release(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sold[productID] -= qty
	f.released[productID] += qty
	return nil
}

func (f *fakeStock) Sold(_ context.Context, productID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sold, ok := f.sold[productID]
	return sold, ok, nil
}

// fakeCatalog 每次返回副本，并用 fakeStock 的实时计数覆盖已售数量
type fakeCatalog struct {
	products map[string]domain.Product
	stock    *fakeStock
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if p.FlashSale != nil {
		fs := *p.FlashSale
		if sold, ok, _ := f.stock.Sold(ctx, id); ok {
			fs.Sold = sold
		}
		p.FlashSale = &fs
	}
	return &p, nil
}

type fakeVouchers struct {
	mu          sync.Mutex
	vouchers    map[string]domain.Voucher
	redemptions map[string][]string // code -> userIDs
	failNext    bool
}

func (f *fakeVouchers) FindByCode(_ context.Context, code string) (*domain.Voucher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vouchers[code]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeVouchers) UsageHistory(_ context.Context, userID string) (domain.UsageHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := domain.UsageHistory{}
	for code, users := range f.redemptions {
		for _, u := range users {
			if u == userID {
				h[code]++
			}
		}
	}
	return h, nil
}

func (f *fakeVouchers) IncrementUsage(_ context.Context, code, userID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return false, nil
	}
	v := f.vouchers[code]
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return false, nil
	}
	v.UsedCount++
	f.vouchers[code] = v
	f.redemptions[code] = append(f.redemptions[code], userID)
	return true, nil
}

func (f *fakeVouchers) DecrementUsage(_ context.Context, code, userID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vouchers[code]
	v.UsedCount--
	f.vouchers[code] = v
	users := f.redemptions[code]
	for i, u := range users {
		if u == userID {
			f.redemptions[code] = append(users[:i], users[i+1:]...)
			break
		}
	}
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	saves  int
}

func (f *fakeOrders) Save(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

type fakePublisher struct {
	events []*domain.OrderPlaced
	fail   bool
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, event *domain.OrderPlaced) error {
	if f.fail {
		return errors.New("kafka unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

type fakeEligibility struct {
	allow bool
	calls int
}

func (f *fakeEligibility) Evaluate(string, domain.EligibilityInput) (bool, error) {
	f.calls++
	return f.allow, nil
}

type fixture struct {
	svc         *CommerceApplicationService
	stock       *fakeStock
	vouchers    *fakeVouchers
	orders      *fakeOrders
	publisher   *fakePublisher
	eligibility *fakeEligibility
	features    Features
}

func newFixture() *fixture {
	f := &fixture{
		stock: newFakeStock(),
		vouchers: &fakeVouchers{
			vouchers: map[string]domain.Voucher{
				"SUMMER": {Code: "SUMMER", IsActive: true, DiscountType: domain.DiscountFixed, DiscountValue: 5000, MinOrderValue: 40000, UsageLimit: 100},
				"VIPONLY": {Code: "VIPONLY", IsActive: true, DiscountType: domain.DiscountPercent, DiscountValue: 10,
					EligibilityRule: `user_id.startsWith("vip-")`},
			},
			redemptions: map[string][]string{},
		},
		orders:      &fakeOrders{orders: map[string]domain.Order{}},
		publisher:   &fakePublisher{},
		eligibility: &fakeEligibility{allow: true},
		features:    Features{FlashSale: true, VoucherRules: true},
	}
	catalog := &fakeCatalog{
		stock: f.stock,
		products: map[string]domain.Product{
			"vol-1":  {ID: "vol-1", Name: "Volume 1", BasePrice: 10000, FlashSale: &domain.FlashSale{Price: 8000, Limit: 3}},
			"poster": {ID: "poster", Name: "Poster", BasePrice: 2500},
			"ebook":  {ID: "ebook", Name: "E-book", BasePrice: 3000, IsDigital: true},
		},
	}
	f.svc = NewCommerceApplicationService(Dependencies{
		Catalog:     catalog,
		Vouchers:    f.vouchers,
		Orders:      f.orders,
		Stock:       f.stock,
		Publisher:   f.publisher,
		Eligibility: f.eligibility,
		Tracer:      noop.NewTracerProvider().Tracer("test"),
		Now:         func() time.Time { return fixedNow },
		Features:    func() Features { return f.features },
	})
	return f
}
