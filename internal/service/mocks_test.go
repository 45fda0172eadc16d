package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/droplabs/drop-service/internal/entities"
)

// txManagerStub прогоняет callback без настоящей транзакции
type txManagerStub struct{}

func (txManagerStub) Do(ctx context.Context, cb func(ctx context.Context) error) error {
	return cb(ctx)
}

type mockDropRepo struct {
	mock.Mock
}

func (m *mockDropRepo) Insert(ctx context.Context, d entities.Drop) (entities.Drop, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropRepo) GetByID(ctx context.Context, id int64) (entities.Drop, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropRepo) Update(ctx context.Context, id int64, patch entities.DropPatch) (entities.Drop, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDropRepo) DeleteAllocationsByDrop(ctx context.Context, dropID int64) error {
	return m.Called(ctx, dropID).Error(0)
}

func (m *mockDropRepo) List(ctx context.Context, status *entities.DropStatus, limit, offset uint64) ([]entities.Drop, int, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]entities.Drop), args.Int(1), args.Error(2)
}

func (m *mockDropRepo) ListByStatus(ctx context.Context, status entities.DropStatus) ([]entities.Drop, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]entities.Drop), args.Error(1)
}

func (m *mockDropRepo) ListAll(ctx context.Context) ([]entities.Drop, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.Drop), args.Error(1)
}

func (m *mockDropRepo) GetCurrent(ctx context.Context, now time.Time) (entities.Drop, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropRepo) GetNext(ctx context.Context, now time.Time) (entities.Drop, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropRepo) UpdateStatuses(ctx context.Context, ids []int64, status entities.DropStatus) (int, error) {
	args := m.Called(ctx, ids, status)
	return args.Int(0), args.Error(1)
}

func (m *mockDropRepo) InsertAllocation(ctx context.Context, a entities.DropProduct) (entities.DropProduct, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(entities.DropProduct), args.Error(1)
}

func (m *mockDropRepo) GetAllocation(ctx context.Context, dropID, productID int64) (entities.DropProduct, error) {
	args := m.Called(ctx, dropID, productID)
	return args.Get(0).(entities.DropProduct), args.Error(1)
}

func (m *mockDropRepo) DeleteAllocation(ctx context.Context, dropID, productID int64) error {
	return m.Called(ctx, dropID, productID).Error(0)
}

func (m *mockDropRepo) UpdateAllocationLimit(ctx context.Context, dropID, productID int64, limit int) (entities.DropProduct, error) {
	args := m.Called(ctx, dropID, productID, limit)
	return args.Get(0).(entities.DropProduct), args.Error(1)
}

func (m *mockDropRepo) ListAllocations(ctx context.Context, dropID int64) ([]entities.DropProductView, error) {
	args := m.Called(ctx, dropID)
	return args.Get(0).([]entities.DropProductView), args.Error(1)
}

func (m *mockDropRepo) IncrementSold(ctx context.Context, dropID, productID int64, qty int) error {
	return m.Called(ctx, dropID, productID, qty).Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (entities.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Product), args.Error(1)
}

func (m *mockProductRepo) ListActive(ctx context.Context) ([]entities.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.Product), args.Error(1)
}

func (m *mockProductRepo) ListByCategory(ctx context.Context, category string) ([]entities.Product, error) {
	args := m.Called(ctx, category)
	return args.Get(0).([]entities.Product), args.Error(1)
}

func (m *mockProductRepo) DecrementStock(ctx context.Context, id int64, qty int) error {
	return m.Called(ctx, id, qty).Error(0)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Insert(ctx context.Context, o entities.Order) (entities.Order, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrderRepo) InsertItems(ctx context.Context, orderID int64, items []entities.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id int64) (entities.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID int64, limit, offset uint64) ([]entities.Order, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]entities.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepo) GetItems(ctx context.Context, orderID int64) ([]entities.OrderItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]entities.OrderItem), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id int64, status entities.OrderStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

type mockShipmentRepo struct {
	mock.Mock
}

func (m *mockShipmentRepo) Upsert(ctx context.Context, s entities.Shipment) (entities.Shipment, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(entities.Shipment), args.Error(1)
}

func (m *mockShipmentRepo) GetByOrder(ctx context.Context, orderID int64) (entities.Shipment, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(entities.Shipment), args.Error(1)
}

func (m *mockShipmentRepo) UpdateStatus(ctx context.Context, orderID int64, status entities.ShipmentStatus, at time.Time, trackingNumber, shippingCompany string) error {
	return m.Called(ctx, orderID, status, at, trackingNumber, shippingCompany).Error(0)
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value []byte) {
	c.data[key] = value
}
