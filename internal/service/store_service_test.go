package service

import (
	"context"
	"testing"

	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"
	"attendance_tracker/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string { return &v }

func createReq(name string) model.CreateStoreRequest {
	return model.CreateStoreRequest{Name: name, Latitude: floatPtr(41.0), Longitude: floatPtr(29.0)}
}

func credits(t *testing.T, db *fakeDB, adminID string) int {
	t.Helper()
	p, ok := db.users[adminID].Admin()
	require.True(t, ok)
	require.NotNil(t, p.StoreCreationCredits)
	return *p.StoreCreationCredits
}

func TestStoreService_CreateConsumesCredit(t *testing.T) {
	db := newFakeDB()
	db.addAdmin("admin", "Store Owner", 1)
	svc := NewStoreService(db.uow(), 3, logger.Nop())

	store, err := svc.Create(context.Background(), "admin", createReq("Mavi  Atasehir"))
	require.NoError(t, err)
	assert.Equal(t, "MAVI_ATASEHIR_QR", store.QRPayload)
	assert.True(t, utils.IsReferenceCode(store.ReferenceCode))
	assert.Equal(t, 0, credits(t, db, "admin"))

	_, err = svc.Create(context.Background(), "admin", createReq("Second"))
	assert.ErrorIs(t, err, ErrNoStoreCredits)
}

func TestStoreService_CreateRejectsNonAdmin(t *testing.T) {
	db := newFakeDB()
	db.addEmployee("emp", "Employee", "s1")
	svc := NewStoreService(db.uow(), 3, logger.Nop())

	_, err := svc.Create(context.Background(), "emp", createReq("Mine"))
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestStoreService_CreateRetriesReferenceCodeCollisions(t *testing.T) {
	db := newFakeDB()
	db.addAdmin("admin", "Store Owner", 2)
	db.storeCreateErrs = []error{repository.ErrDuplicateReferenceCode, repository.ErrDuplicateReferenceCode}
	svc := NewStoreService(db.uow(), 3, logger.Nop())

	_, err := svc.Create(context.Background(), "admin", createReq("Lucky"))
	require.NoError(t, err)

	db.storeCreateErrs = []error{repository.ErrDuplicateReferenceCode, repository.ErrDuplicateReferenceCode, repository.ErrDuplicateReferenceCode}
	_, err = svc.Create(context.Background(), "admin", createReq("Unlucky"))
	assert.ErrorIs(t, err, ErrReferenceCodeExhausted)
}

func TestStoreService_CreateValidatesCoordinates(t *testing.T) {
	db := newFakeDB()
	db.addAdmin("admin", "Store Owner", 1)
	svc := NewStoreService(db.uow(), 3, logger.Nop())

	req := createReq("Nowhere")
	req.Latitude = floatPtr(91)
	_, err := svc.Create(context.Background(), "admin", req)
	assert.ErrorIs(t, err, ErrInvalidStore)
	assert.Equal(t, 1, credits(t, db, "admin"))
}

func TestStoreService_UpdateKeepsReferenceCode(t *testing.T) {
	db := newFakeDB()
	db.addAdmin("admin", "Store Owner", 0)
	db.addStore(model.Store{ID: "s1", OwnerID: "admin", Name: "Old", QRPayload: "OLD_QR", ReferenceCode: "AAAAAA"})
	db.addStore(model.Store{ID: "s2", OwnerID: "admin", Name: "Other", QRPayload: "TAKEN_QR", ReferenceCode: "BBBBBB"})
	svc := NewStoreService(db.uow(), 3, logger.Nop())

	store, err := svc.Update(context.Background(), "admin", "s1", model.UpdateStoreRequest{Name: strPtr("New"), Latitude: floatPtr(40.5)})
	require.NoError(t, err)
	assert.Equal(t, "New", store.Name)
	assert.Equal(t, 40.5, store.Location.Latitude)
	assert.Equal(t, "AAAAAA", store.ReferenceCode)

	_, err = svc.Update(context.Background(), "admin", "s1", model.UpdateStoreRequest{QRPayload: strPtr("TAKEN_QR")})
	assert.ErrorIs(t, err, ErrDuplicateQRPayload)

	_, err = svc.Update(context.Background(), "someone", "s1", model.UpdateStoreRequest{Name: strPtr("Hijack")})
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestStoreService_Delete(t *testing.T) {
	db := newFakeDB()
	db.addAdmin("admin", "Store Owner", 0)
	db.addStore(model.Store{ID: "busy", OwnerID: "admin", Name: "Busy", QRPayload: "BUSY_QR", ReferenceCode: "AAAAAA"})
	db.addStore(model.Store{ID: "empty", OwnerID: "admin", Name: "Empty", QRPayload: "EMPTY_QR", ReferenceCode: "BBBBBB"})
	db.addEmployee("emp", "Employee", "busy")
	svc := NewStoreService(db.uow(), 3, logger.Nop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "admin", "busy"), ErrStoreHasEmployees)
	assert.ErrorIs(t, svc.Delete(ctx, "admin", "missing"), ErrStoreNotFound)
	require.NoError(t, svc.Delete(ctx, "admin", "empty"))

	stores, err := svc.List(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "busy", stores[0].ID)

	u, err := db.uow().Users().FindByID(ctx, "admin")
	require.NoError(t, err)
	admin, _ := u.Admin()
	assert.Equal(t, []string{"busy"}, admin.StoreIDs)
}
