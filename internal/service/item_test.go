package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
)

// memItemStore keeps the repository's guarded-update behavior: an
// adjustment that would drive the balance negative affects zero rows.
type memItemStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*model.Item
}

func newMemItemStore() *memItemStore {
	return &memItemStore{nextID: 1, rows: map[uint]*model.Item{}}
}

func (s *memItemStore) Create(_ context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.OrganizationID == item.OrganizationID && existing.SKU == item.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	item.ID = s.nextID
	s.nextID++
	clone := *item
	s.rows[item.ID] = &clone
	return nil
}

func (s *memItemStore) GetByID(_ context.Context, orgID, id uint) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.rows[id]
	if !ok || item.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *item
	return &clone, nil
}

func (s *memItemStore) ExistsBySKU(_ context.Context, orgID uint, sku string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.rows {
		if item.OrganizationID == orgID && item.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (s *memItemStore) List(_ context.Context, orgID uint, search string, _, _ int) ([]model.Item, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Item
	for _, item := range s.rows {
		if item.OrganizationID != orgID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(item.SKU), strings.ToLower(search)) {
			continue
		}
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (s *memItemStore) Update(_ context.Context, orgID, id uint, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.rows[id]
	if !ok || item.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["name"]; ok {
		item.Name = v.(string)
	}
	if v, ok := fields["unit_price"]; ok {
		item.UnitPrice = v.(float64)
	}
	if v, ok := fields["location"]; ok {
		item.Location = v.(string)
	}
	return nil
}

func (s *memItemStore) AdjustQuantity(_ context.Context, orgID, id uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.rows[id]
	if !ok || item.OrganizationID != orgID || item.Quantity+delta < 0 {
		return gorm.ErrRecordNotFound
	}
	item.Quantity += delta
	return nil
}

func (s *memItemStore) Delete(_ context.Context, orgID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.rows[id]
	if !ok || item.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, id)
	return nil
}

// recordingInvalidator counts cache invalidations per organization.
type recordingInvalidator struct {
	mu    sync.Mutex
	calls map[uint]int
}

func newRecordingInvalidator() *recordingInvalidator {
	return &recordingInvalidator{calls: map[uint]int{}}
}

func (r *recordingInvalidator) Invalidate(_ context.Context, orgID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[orgID]++
}

func (r *recordingInvalidator) count(orgID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[orgID]
}

func newItemFixture(t *testing.T) (*ItemService, *dto.ItemResponse) {
	t.Helper()
	svc := NewItemService(newMemItemStore(), newRecordingInvalidator())
	item, err := svc.Create(context.Background(), 1, &dto.CreateItemRequest{
		SKU:       "WIDGET-1",
		Name:      "Widget",
		Quantity:  10,
		UnitPrice: 4.5,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return svc, item
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	svc, _ := newItemFixture(t)

	_, err := svc.Create(context.Background(), 1, &dto.CreateItemRequest{
		SKU: "WIDGET-1", Name: "Another widget",
	})
	if !errors.Is(err, apperrors.ErrSKUExists) {
		t.Fatalf("err = %v, want ErrSKUExists", err)
	}

	// The same SKU is fine in a different organization
	if _, err := svc.Create(context.Background(), 2, &dto.CreateItemRequest{
		SKU: "WIDGET-1", Name: "Widget",
	}); err != nil {
		t.Fatalf("cross-org create error = %v", err)
	}
}

func TestAdjustQuantity(t *testing.T) {
	svc, item := newItemFixture(t)

	updated, err := svc.AdjustQuantity(context.Background(), 1, item.ID, -4)
	if err != nil {
		t.Fatalf("AdjustQuantity() error = %v", err)
	}
	if updated.Quantity != 6 {
		t.Errorf("quantity = %d, want 6", updated.Quantity)
	}

	if _, err := svc.AdjustQuantity(context.Background(), 1, item.ID, 0); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("zero delta err = %v, want ErrInvalidInput", err)
	}
}

func TestAdjustQuantityNeverGoesNegative(t *testing.T) {
	svc, item := newItemFixture(t)

	_, err := svc.AdjustQuantity(context.Background(), 1, item.ID, -11)
	if !errors.Is(err, apperrors.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// The failed adjustment must not have touched the balance
	after, err := svc.Get(context.Background(), 1, item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if after.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", after.Quantity)
	}
}

func TestAdjustQuantityUnknownItem(t *testing.T) {
	svc, _ := newItemFixture(t)

	if _, err := svc.AdjustQuantity(context.Background(), 1, 999, -1); !errors.Is(err, apperrors.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestItemWritesInvalidateReportCache(t *testing.T) {
	reports := newRecordingInvalidator()
	svc := NewItemService(newMemItemStore(), reports)

	item, err := svc.Create(context.Background(), 1, &dto.CreateItemRequest{
		SKU: "WIDGET-1", Name: "Widget", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.AdjustQuantity(context.Background(), 1, item.ID, -2); err != nil {
		t.Fatalf("AdjustQuantity() error = %v", err)
	}
	if err := svc.Delete(context.Background(), 1, item.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if got := reports.count(1); got != 3 {
		t.Errorf("invalidations = %d, want 3", got)
	}

	// A failed write must not flush the cache
	if _, err := svc.AdjustQuantity(context.Background(), 1, 999, -1); err == nil {
		t.Fatal("expected error for unknown item")
	}
	if got := reports.count(1); got != 3 {
		t.Errorf("invalidations after failed write = %d, want 3", got)
	}
}

func TestItemsAreOrgScoped(t *testing.T) {
	svc, item := newItemFixture(t)

	if _, err := svc.Get(context.Background(), 2, item.ID); !errors.Is(err, apperrors.ErrItemNotFound) {
		t.Fatalf("cross-org get err = %v, want ErrItemNotFound", err)
	}
	if err := svc.Delete(context.Background(), 2, item.ID); !errors.Is(err, apperrors.ErrItemNotFound) {
		t.Fatalf("cross-org delete err = %v, want ErrItemNotFound", err)
	}
}
