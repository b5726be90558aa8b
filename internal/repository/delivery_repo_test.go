package repository

import (
	"testing"
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createDelivery(t *testing.T, db *gorm.DB, saleID uuid.UUID, status model.DeliveryStatus, driverID *uuid.UUID) *model.Delivery {
	t.Helper()
	d := &model.Delivery{
		SaleID:   saleID,
		DriverID: driverID,
		Address:  "Calle El Conde 55, Santo Domingo",
		Status:   status,
	}
	require.NoError(t, NewDeliveryRepo(db).Create(d))
	return d
}

func TestDeliveryRepo_Transition(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeliveryRepo(db)
	d := createDelivery(t, db, uuid.New(), model.DeliveryPending, nil)
	driver := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, repo.Transition(d.ID, model.DeliveryPending, model.DeliveryAssigned, map[string]interface{}{
		"driver_id":   driver,
		"assigned_at": now,
	}))

	got, err := repo.FindByID(d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryAssigned, got.Status)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, driver, *got.DriverID)
	assert.NotNil(t, got.AssignedAt)

	err = repo.Transition(d.ID, model.DeliveryPending, model.DeliveryCancelled, nil)
	assert.ErrorIs(t, err, ErrStaleState)
}

func TestDeliveryRepo_FindOpenBySale(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeliveryRepo(db)
	saleID := uuid.New()
	createDelivery(t, db, saleID, model.DeliveryCancelled, nil)

	_, err := repo.FindOpenBySale(saleID)
	assert.True(t, IsNotFound(err), "cancelled deliveries do not block a new one")

	open := createDelivery(t, db, saleID, model.DeliveryPending, nil)
	got, err := repo.FindOpenBySale(saleID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID)
}

func TestDeliveryRepo_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeliveryRepo(db)
	createDelivery(t, db, uuid.New(), model.DeliveryPending, nil)
	createDelivery(t, db, uuid.New(), model.DeliveryPending, nil)
	createDelivery(t, db, uuid.New(), model.DeliveryDelivered, nil)

	got, total, err := repo.List(model.DeliveryPending, model.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, got, 2)

	_, total, err = repo.List("", model.Pagination{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestDriverRepo_FindAllCountsActiveDeliveries(t *testing.T) {
	db := newTestDB(t)
	drivers := NewDriverRepo(db)

	ana := &model.Driver{Name: "Ana", Phone: "8095550001", IsActive: true}
	beto := &model.Driver{Name: "Beto", Phone: "8095550002", IsActive: true}
	carla := &model.Driver{Name: "Carla", Phone: "8095550003", IsActive: false}
	for _, d := range []*model.Driver{ana, beto, carla} {
		require.NoError(t, drivers.Create(d))
	}

	createDelivery(t, db, uuid.New(), model.DeliveryAssigned, &ana.ID)
	createDelivery(t, db, uuid.New(), model.DeliveryInTransit, &ana.ID)
	createDelivery(t, db, uuid.New(), model.DeliveryDelivered, &ana.ID)
	createDelivery(t, db, uuid.New(), model.DeliveryDelivered, &beto.ID)

	got, err := drivers.FindAll(true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ana", got[0].Name)
	assert.Equal(t, int64(2), got[0].ActiveDeliveries)
	assert.Equal(t, int64(0), got[1].ActiveDeliveries)

	all, err := drivers.FindAll(false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
