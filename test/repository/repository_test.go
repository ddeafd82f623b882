package repository_test

import (
	"context"
	"testing"
	"time"

	"reservation-service/internal/migrate"
	"reservation-service/internal/models"
	"reservation-service/internal/repository"
	"reservation-service/pkg/testutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.SetupTestPostgres(t)
	if err := migrate.MigrateReservationDB(context.Background(), db, zap.NewNop(), migrate.DefaultMigrateOptions()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, repo repository.ProductRepo, tenantID uuid.UUID, stock int32) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:       uuid.New(),
		TenantID: tenantID,
		SKU:      "SKU-" + uuid.NewString()[:8],
		Name:     "Test Product",
		Stock:    stock,
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestProductRepo_Ledger(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewProductRepo(db)

	ctx := context.Background()
	tenantID := uuid.New()
	p := seedProduct(t, repo, tenantID, 100)

	got, err := repo.GetByID(ctx, p.ID, tenantID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Stock != 100 {
		t.Fatalf("GetByID mismatch: %+v", got)
	}

	// another tenant must not see the row
	other, err := repo.GetByID(ctx, p.ID, uuid.New())
	if err != nil {
		t.Fatalf("GetByID other tenant: %v", err)
	}
	if other != nil {
		t.Fatalf("expected nil for foreign tenant, got %+v", other)
	}

	if err := repo.SetStock(ctx, p.ID, tenantID, 42); err != nil {
		t.Fatalf("SetStock: %v", err)
	}

	stock, ok, err := repo.DecrementStock(ctx, p.ID, tenantID, 40)
	if err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	if !ok || stock != 2 {
		t.Fatalf("expected stock=2 applied=true, got stock=%d applied=%v", stock, ok)
	}

	// the ledger is not floored at zero
	stock, ok, err = repo.DecrementStock(ctx, p.ID, tenantID, 5)
	if err != nil {
		t.Fatalf("DecrementStock below zero: %v", err)
	}
	if !ok || stock != -3 {
		t.Fatalf("expected stock=-3, got stock=%d applied=%v", stock, ok)
	}

	// missing row: no effect reported
	_, ok, err = repo.DecrementStock(ctx, uuid.New(), tenantID, 1)
	if err != nil {
		t.Fatalf("DecrementStock missing: %v", err)
	}
	if ok {
		t.Fatal("expected applied=false for missing product")
	}
}

func TestVariantRepo_Ledger(t *testing.T) {
	db := setupDB(t)
	products := repository.NewProductRepo(db)
	variants := repository.NewVariantRepo(db)

	ctx := context.Background()
	tenantID := uuid.New()
	p := seedProduct(t, products, tenantID, 10)

	v := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: p.ID,
		TenantID:  tenantID,
		SKU:       "VAR-1",
		BaseStock: 5,
	}
	if err := variants.Create(ctx, v); err != nil {
		t.Fatalf("Create variant: %v", err)
	}

	got, err := variants.GetByID(ctx, v.ID, tenantID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.BaseStock != 5 {
		t.Fatalf("GetByID mismatch: %+v", got)
	}

	stock, ok, err := variants.DecrementBaseStock(ctx, v.ID, tenantID, 2)
	if err != nil {
		t.Fatalf("DecrementBaseStock: %v", err)
	}
	if !ok || stock != 3 {
		t.Fatalf("expected base_stock=3, got %d applied=%v", stock, ok)
	}
}

func TestReservationRepo_Lifecycle(t *testing.T) {
	db := setupDB(t)
	products := repository.NewProductRepo(db)
	reservations := repository.NewReservationRepo(db)

	ctx := context.Background()
	tenantID := uuid.New()
	orderID := uuid.New()
	p := seedProduct(t, products, tenantID, 100)

	res := &models.Reservation{
		OrderID:   orderID,
		ProductID: p.ID,
		Quantity:  20,
		TenantID:  tenantID,
		Status:    models.ReservationActive,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}
	if err := reservations.Create(ctx, res); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sum, err := reservations.SumActiveByProduct(ctx, p.ID, tenantID)
	if err != nil {
		t.Fatalf("SumActiveByProduct: %v", err)
	}
	if sum != 20 {
		t.Fatalf("expected active sum 20, got %d", sum)
	}

	// foreign tenant sees nothing
	sum, err = reservations.SumActiveByProduct(ctx, p.ID, uuid.New())
	if err != nil {
		t.Fatalf("SumActiveByProduct foreign tenant: %v", err)
	}
	if sum != 0 {
		t.Fatalf("expected 0 for foreign tenant, got %d", sum)
	}

	active, err := reservations.ListActiveByOrder(ctx, orderID, tenantID)
	if err != nil {
		t.Fatalf("ListActiveByOrder: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active row, got %d", len(active))
	}

	ok, err := reservations.MarkConfirmed(ctx, res.ID)
	if err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}
	if !ok {
		t.Fatal("expected MarkConfirmed=true on ACTIVE row")
	}

	// second confirm finds no ACTIVE row
	ok, err = reservations.MarkConfirmed(ctx, res.ID)
	if err != nil {
		t.Fatalf("MarkConfirmed second: %v", err)
	}
	if ok {
		t.Fatal("expected MarkConfirmed=false on CONFIRMED row")
	}

	sum, err = reservations.SumActiveByProduct(ctx, p.ID, tenantID)
	if err != nil {
		t.Fatalf("SumActiveByProduct after confirm: %v", err)
	}
	if sum != 0 {
		t.Fatalf("expected 0 active after confirm, got %d", sum)
	}
}

func TestReservationRepo_ReleaseByOrder(t *testing.T) {
	db := setupDB(t)
	products := repository.NewProductRepo(db)
	reservations := repository.NewReservationRepo(db)

	ctx := context.Background()
	tenantID := uuid.New()
	orderID := uuid.New()
	p := seedProduct(t, products, tenantID, 100)
	p2 := seedProduct(t, products, tenantID, 100)

	for _, pid := range []uuid.UUID{p.ID, p2.ID} {
		res := &models.Reservation{
			OrderID:   orderID,
			ProductID: pid,
			Quantity:  5,
			TenantID:  tenantID,
			Status:    models.ReservationActive,
			ExpiresAt: time.Now().Add(15 * time.Minute),
		}
		if err := reservations.Create(ctx, res); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	released, err := reservations.ReleaseByOrder(ctx, orderID, tenantID)
	if err != nil {
		t.Fatalf("ReleaseByOrder: %v", err)
	}
	if released != 2 {
		t.Fatalf("expected 2 released, got %d", released)
	}

	// no ACTIVE rows left: no-op, not an error
	released, err = reservations.ReleaseByOrder(ctx, orderID, tenantID)
	if err != nil {
		t.Fatalf("ReleaseByOrder second: %v", err)
	}
	if released != 0 {
		t.Fatalf("expected 0 on second release, got %d", released)
	}
}

func TestReservationRepo_ReleaseExpired(t *testing.T) {
	db := setupDB(t)
	products := repository.NewProductRepo(db)
	reservations := repository.NewReservationRepo(db)

	ctx := context.Background()
	tenantID := uuid.New()
	p := seedProduct(t, products, tenantID, 100)

	mk := func(status models.ReservationStatus, expiresAt time.Time) *models.Reservation {
		res := &models.Reservation{
			OrderID:   uuid.New(),
			ProductID: p.ID,
			Quantity:  1,
			TenantID:  tenantID,
			Status:    status,
			ExpiresAt: expiresAt,
		}
		if err := reservations.Create(ctx, res); err != nil {
			t.Fatalf("Create: %v", err)
		}
		return res
	}

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	expired := mk(models.ReservationActive, past)
	fresh := mk(models.ReservationActive, future)
	confirmed := mk(models.ReservationConfirmed, past)
	released := mk(models.ReservationReleased, past)

	count, err := reservations.ReleaseExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("ReleaseExpired: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 released, got %d", count)
	}

	for _, tc := range []struct {
		id   uuid.UUID
		want models.ReservationStatus
	}{
		{expired.ID, models.ReservationReleased},
		{fresh.ID, models.ReservationActive},
		{confirmed.ID, models.ReservationConfirmed},
		{released.ID, models.ReservationReleased},
	} {
		var got models.Reservation
		if err := db.First(&got, "id = ?", tc.id).Error; err != nil {
			t.Fatalf("load %s: %v", tc.id, err)
		}
		if got.Status != tc.want {
			t.Fatalf("row %s: expected %s, got %s", tc.id, tc.want, got.Status)
		}
	}

	// second sweep finds nothing
	count, err = reservations.ReleaseExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("ReleaseExpired second: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 on second sweep, got %d", count)
	}
}

func TestReservationRepo_TerminalRowsAreImmutable(t *testing.T) {
	db := setupDB(t)
	products := repository.NewProductRepo(db)
	reservations := repository.NewReservationRepo(db)

	ctx := context.Background()
	tenantID := uuid.New()
	p := seedProduct(t, products, tenantID, 10)

	res := &models.Reservation{
		OrderID:   uuid.New(),
		ProductID: p.ID,
		Quantity:  1,
		TenantID:  tenantID,
		Status:    models.ReservationActive,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := reservations.Create(ctx, res); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reservations.MarkConfirmed(ctx, res.ID); err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}

	// even a raw write cannot move a terminal row
	err := db.Exec(`UPDATE reservations SET status = 'RELEASED' WHERE id = ?`, res.ID).Error
	if err == nil {
		t.Fatal("expected status guard to reject CONFIRMED -> RELEASED")
	}
}

func TestReservationRepo_UniqueOrderItem(t *testing.T) {
	db := setupDB(t)
	products := repository.NewProductRepo(db)
	reservations := repository.NewReservationRepo(db)

	ctx := context.Background()
	tenantID := uuid.New()
	orderID := uuid.New()
	p := seedProduct(t, products, tenantID, 10)

	res := &models.Reservation{
		OrderID:   orderID,
		ProductID: p.ID,
		Quantity:  1,
		TenantID:  tenantID,
		Status:    models.ReservationActive,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := reservations.Create(ctx, res); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &models.Reservation{
		OrderID:   orderID,
		ProductID: p.ID,
		Quantity:  2,
		TenantID:  tenantID,
		Status:    models.ReservationActive,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := reservations.Create(ctx, dup); err == nil {
		t.Fatal("expected duplicate (order, product) insert to fail")
	}
}
