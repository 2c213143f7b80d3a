package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

var (
	admin     = identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin}
	developer = identity.Identity{UserID: "dev-1", Role: identity.RoleDeveloper}
	created   = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *VehicleRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, func() *VehicleRepository { return NewVehicleRepository(db) }
}

var vehicleRowCols = []string{"id", "admin_uid", "plate_number", "model", "type", "status", "created_at"}

func TestVehicleList_AdminWithSearch(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.admin_uid = $1 AND (v.plate_number ILIKE $2")).
		WithArgs("admin-1", `%TU\_1%`).
		WillReturnRows(sqlmock.NewRows(vehicleRowCols).
			AddRow("veh-1", "admin-1", "123 TU_1", "Corolla", "car", "active", created).
			AddRow("veh-2", "admin-1", "88 TU_1", "Actros", "truck", "maintenance", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM devices WHERE vehicle_id IN ($1, $2)")).
		WithArgs("veh-1", "veh-2").
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "id"}).AddRow("veh-1", "dev-a"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM developer_vehicles WHERE vehicle_id IN ($1, $2)")).
		WithArgs("veh-1", "veh-2").
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "developer_id"}).AddRow("veh-2", "dev-1"))

	vehicles, err := repo().List(context.Background(), admin, " TU_1 ")
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, []string{"dev-a"}, vehicles[0].DeviceIDs)
	assert.Equal(t, []string{}, vehicles[0].DeveloperIDs)
	assert.Equal(t, []string{"dev-1"}, vehicles[1].DeveloperIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleList_DeveloperScope(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("v.id IN (SELECT vehicle_id FROM developer_vehicles WHERE developer_id = $1)")).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows(vehicleRowCols))

	vehicles, err := repo().List(context.Background(), developer, "")
	require.NoError(t, err)
	assert.Empty(t, vehicles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleList_UnsupportedRole(t *testing.T) {
	_, repo := newMock(t)
	_, err := repo().List(context.Background(), identity.Identity{UserID: "x", Role: "guest"}, "")
	assert.ErrorIs(t, err, ErrUnsupportedRole)
}

func TestVehicleGet_NotFound(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("AND v.id = $2")).
		WithArgs("admin-1", "veh-9").
		WillReturnRows(sqlmock.NewRows(vehicleRowCols))

	_, err := repo().Get(context.Background(), admin, "veh-9")
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestVehicleCreate(t *testing.T) {
	mock, repo := newMock(t)
	v := &models.Vehicle{
		ID: "veh-1", AdminUID: "admin-1", PlateNumber: "123 TU 4567", Model: "Corolla",
		Type: "car", Status: "active", DeviceIDs: []string{"dev-a"}, DeveloperIDs: []string{"dev-1", "dev-2"},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO vehicles")).
		WithArgs("veh-1", "admin-1", "123 TU 4567", "Corolla", "car", "active").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO devices (id, vehicle_id)")).
		WithArgs("dev-a", "veh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE admin_uid = $2 AND id IN ($3, $4)")).
		WithArgs("veh-1", "admin-1", "dev-1", "dev-2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo().Create(context.Background(), v))
	assert.Equal(t, created, v.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleCreate_DeviceTaken(t *testing.T) {
	mock, repo := newMock(t)
	v := &models.Vehicle{ID: "veh-1", AdminUID: "admin-1", PlateNumber: "P", Type: "car", Status: "active", DeviceIDs: []string{"dev-a"}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO vehicles")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO devices")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	assert.ErrorIs(t, repo().Create(context.Background(), v), ErrDeviceTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleUpdate_UnknownDeveloperRollsBack(t *testing.T) {
	mock, repo := newMock(t)
	v := &models.Vehicle{ID: "veh-1", AdminUID: "admin-1", PlateNumber: "P", Type: "car", Status: "inactive", DeveloperIDs: []string{"dev-x"}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE vehicles")).
		WithArgs("veh-1", "admin-1", "P", "", "car", "inactive").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM developer_vehicles WHERE vehicle_id = $1")).
		WithArgs("veh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO developer_vehicles")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo().Update(context.Background(), v, true), ErrUnknownDeveloper)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleDelete(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM vehicles WHERE id = $1 AND admin_uid = $2 FOR UPDATE")).
		WithArgs("veh-1", "admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("veh-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM developer_vehicles")).WithArgs("veh-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE customers SET vehicle_id = NULL")).WithArgs("veh-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM devices")).WithArgs("veh-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM vehicles")).WithArgs("veh-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo().Delete(context.Background(), "admin-1", "veh-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleDelete_NotOwned(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("veh-1", "admin-2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo().Delete(context.Background(), "admin-2", "veh-1"), ErrVehicleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var customerRowCols = []string{"id", "admin_uid", "first_name", "last_name", "cin", "phone", "company_name", "address", "vehicle_id", "developer_id", "created_at"}

func TestCustomerGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN developer_customers dc")).
		WithArgs("dev-1", "cus-1").
		WillReturnRows(sqlmock.NewRows(customerRowCols).
			AddRow("cus-1", "admin-1", "Amine", "K", "", "555", "", "", "veh-1", "dev-1", created))

	c, err := NewCustomerRepository(db).Get(context.Background(), developer, "cus-1")
	require.NoError(t, err)
	require.NotNil(t, c.VehicleID)
	assert.Equal(t, "veh-1", *c.VehicleID)
	require.NotNil(t, c.DeveloperID)
	assert.Equal(t, "dev-1", *c.DeveloperID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerCreate_ReassignsDeveloper(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	vehicleID, developerID := "veh-1", "dev-2"
	c := &models.Customer{ID: "cus-1", AdminUID: "admin-1", FirstName: "Amine", LastName: "K", VehicleID: &vehicleID, DeveloperID: &developerID}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM vehicles WHERE id = $1 AND admin_uid = $2")).
		WithArgs("veh-1", "admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("veh-1"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO customers")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM developer_customers WHERE customer_id = $1")).
		WithArgs("cus-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO developer_customers")).
		WithArgs("dev-2", "cus-1", "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewCustomerRepository(db).Create(context.Background(), c))
	assert.Equal(t, created, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerUpdate_UnknownVehicle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	vehicleID := "veh-other"
	c := &models.Customer{ID: "cus-1", AdminUID: "admin-1", FirstName: "A", LastName: "B", VehicleID: &vehicleID}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM vehicles")).
		WithArgs("veh-other", "admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, NewCustomerRepository(db).Update(context.Background(), c), ErrUnknownVehicle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerClaimable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.admin_uid = (SELECT admin_uid FROM developers WHERE id = $1)")).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows(customerRowCols).
			AddRow("cus-2", "admin-1", "Sara", "B", "", "", "", "", nil, nil, created))

	customers, err := NewCustomerRepository(db).Claimable(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "cus-2", customers[0].ID)
	assert.Nil(t, customers[0].DeveloperID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerClaim(t *testing.T) {
	lock := regexp.QuoteMeta("FOR UPDATE OF c")
	holder := regexp.QuoteMeta("SELECT developer_id FROM developer_customers WHERE customer_id = $1")

	t.Run("unheld customer is assigned", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("cus-2", "dev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cus-2"))
		mock.ExpectQuery(holder).WithArgs("cus-2").
			WillReturnRows(sqlmock.NewRows([]string{"developer_id"}))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO developer_customers (developer_id, customer_id) VALUES ($1, $2)")).
			WithArgs("dev-1", "cus-2").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewCustomerRepository(db).Claim(context.Background(), "dev-1", "cus-2"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("own customer is a no-op", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("cus-2", "dev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cus-2"))
		mock.ExpectQuery(holder).WithArgs("cus-2").
			WillReturnRows(sqlmock.NewRows([]string{"developer_id"}).AddRow("dev-1"))
		mock.ExpectCommit()

		require.NoError(t, NewCustomerRepository(db).Claim(context.Background(), "dev-1", "cus-2"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("customer held by a colleague", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("cus-2", "dev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cus-2"))
		mock.ExpectQuery(holder).WithArgs("cus-2").
			WillReturnRows(sqlmock.NewRows([]string{"developer_id"}).AddRow("dev-9"))
		mock.ExpectRollback()

		assert.ErrorIs(t, NewCustomerRepository(db).Claim(context.Background(), "dev-1", "cus-2"), ErrCustomerTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("customer of another admin", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("cus-7", "dev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		assert.ErrorIs(t, NewCustomerRepository(db).Claim(context.Background(), "dev-1", "cus-7"), ErrCustomerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeveloperList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM developers WHERE admin_uid = $1")).
		WithArgs("admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_uid", "first_name", "last_name", "email", "cin", "phone", "company_name", "address", "created_at"}).
			AddRow("dev-1", "admin-1", "Lina", "M", "lina@fleet.io", "", "", "", "", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM developer_vehicles WHERE developer_id IN ($1)")).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows([]string{"developer_id", "vehicle_id"}).AddRow("dev-1", "veh-1").AddRow("dev-1", "veh-2"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM developer_customers WHERE developer_id IN ($1)")).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows([]string{"developer_id", "customer_id"}))

	devs, err := NewDeveloperRepository(db).List(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, []string{"veh-1", "veh-2"}, devs[0].VehicleIDs)
	assert.Equal(t, []string{}, devs[0].CustomerIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeveloperCreate_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO developers")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = NewDeveloperRepository(db).Create(context.Background(), &models.Developer{ID: "dev-1", AdminUID: "admin-1"})
	assert.ErrorIs(t, err, ErrDeveloperExists)
}

func TestDeveloperUpdate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE developers")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewDeveloperRepository(db).Update(context.Background(), &models.Developer{ID: "dev-9", AdminUID: "admin-1"})
	assert.ErrorIs(t, err, ErrDeveloperNotFound)
}

func TestDashboardQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY v.status")).
		WithArgs("admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("active", 3).AddRow("maintenance", 1).AddRow("retired", 2))
	counts, err := repo.VehicleCounts(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleCounts{Total: 6, Active: 3, Maintenance: 1}, counts)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers c WHERE c.id IN")).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	n, err := repo.CountCustomers(context.Background(), developer)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	speed := 42.5
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (v.id)")).
		WithArgs("admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plate_number", "status", "device_id", "latitude", "longitude", "speed", "created_at"}).
			AddRow("veh-1", "123 TU 4567", "active", "dev-a", 36.8, 10.18, speed, created).
			AddRow("veh-2", "88 TU 1", "inactive", "dev-b", 35.1, 9.9, nil, created))
	locs, err := repo.LatestLocations(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	require.NotNil(t, locs[0].Speed)
	assert.Equal(t, speed, *locs[0].Speed)
	assert.Nil(t, locs[1].Speed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
