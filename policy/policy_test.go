package policy

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/zacktam12/Restaurant-management-sub000/config"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func seedRestaurant(t *testing.T, db *gorm.DB, managerID *uint, capacity int) *models.Restaurant {
	t.Helper()
	// Copy the manager ID so gorm's write-back on Update can't mutate the
	// caller's variable through the shared pointer.
	var mid *uint
	if managerID != nil {
		v := *managerID
		mid = &v
	}
	r := &models.Restaurant{Name: "Test Bistro", SeatingCapacity: capacity, ManagerID: mid}
	require.NoError(t, db.Create(r).Error)
	return r
}

func TestAdminAlwaysAllowed(t *testing.T) {
	p := New(NewScopeResolver(newTestDB(t)))
	admin := Actor{ID: 1, Role: models.RoleAdmin}

	for _, action := range []Action{
		ActionRestaurantCreate, ActionRestaurantDelete, ActionReservationWrite,
		ActionBookingWrite, ActionUserManage, ActionReservationList,
	} {
		dec := p.Decide(context.Background(), admin, action, Target{})
		assert.Equal(t, Allow, dec.Effect, "admin should be allowed %s", action)
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	p := New(NewScopeResolver(newTestDB(t)))

	rid := uint(1)
	for _, role := range []models.UserRole{"", "driver", "superuser"} {
		dec := p.Decide(context.Background(), Actor{ID: 1, Role: role}, ActionReservationRead, Target{RestaurantID: &rid})
		assert.Equal(t, Deny, dec.Effect, "role %q must be denied", role)
	}
}

func TestManagerScopedToOwnRestaurants(t *testing.T) {
	db := newTestDB(t)
	p := New(NewScopeResolver(db))

	ownerID := uint(10)
	owned := seedRestaurant(t, db, &ownerID, 20)
	otherID := uint(11)
	foreign := seedRestaurant(t, db, &otherID, 20)

	manager := Actor{ID: ownerID, Role: models.RoleManager}

	dec := p.Decide(context.Background(), manager, ActionReservationWrite, Target{RestaurantID: &owned.ID})
	assert.Equal(t, Allow, dec.Effect)

	dec = p.Decide(context.Background(), manager, ActionReservationWrite, Target{RestaurantID: &foreign.ID})
	assert.Equal(t, Deny, dec.Effect)

	// Restaurant create/delete are admin-only even inside the scope.
	dec = p.Decide(context.Background(), manager, ActionRestaurantCreate, Target{})
	assert.Equal(t, Deny, dec.Effect)
	dec = p.Decide(context.Background(), manager, ActionRestaurantDelete, Target{RestaurantID: &owned.ID})
	assert.Equal(t, Deny, dec.Effect)
}

func TestManagerNeverEscapesScopeRandomPairs(t *testing.T) {
	db := newTestDB(t)
	p := New(NewScopeResolver(db))

	// 5 managers, each owning a disjoint set of restaurants.
	owners := make(map[uint]map[uint]bool) // managerID -> set of owned restaurant IDs
	for m := uint(1); m <= 5; m++ {
		owners[m] = map[uint]bool{}
		for i := 0; i < 3; i++ {
			managerID := m
			r := seedRestaurant(t, db, &managerID, 10)
			owners[m][r.ID] = true
		}
	}

	var allRestaurants []uint
	require.NoError(t, db.Table("restaurants").Pluck("id", &allRestaurants).Error)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		m := uint(rng.Intn(5) + 1)
		rid := allRestaurants[rng.Intn(len(allRestaurants))]
		actor := Actor{ID: m, Role: models.RoleManager}

		for _, action := range []Action{ActionReservationRead, ActionReservationWrite, ActionRestaurantUpdate, ActionMenuWrite} {
			dec := p.Decide(context.Background(), actor, action, Target{RestaurantID: &rid})
			if owners[m][rid] {
				assert.Equal(t, Allow, dec.Effect, "manager %d owns restaurant %d", m, rid)
			} else {
				assert.Equal(t, Deny, dec.Effect, "manager %d must not reach restaurant %d", m, rid)
			}
		}
	}
}

func TestManagerListActionsYieldScope(t *testing.T) {
	db := newTestDB(t)
	p := New(NewScopeResolver(db))

	managerID := uint(7)
	r1 := seedRestaurant(t, db, &managerID, 10)
	r2 := seedRestaurant(t, db, &managerID, 10)
	otherID := uint(8)
	seedRestaurant(t, db, &otherID, 10)

	dec := p.Decide(context.Background(), Actor{ID: managerID, Role: models.RoleManager}, ActionReservationList, Target{})
	require.Equal(t, Scoped, dec.Effect)
	assert.ElementsMatch(t, []uint{r1.ID, r2.ID}, dec.RestaurantIDs)
}

func TestManagerWithNoRestaurantsGetsEmptyScope(t *testing.T) {
	db := newTestDB(t)
	p := New(NewScopeResolver(db))

	dec := p.Decide(context.Background(), Actor{ID: 99, Role: models.RoleManager}, ActionRestaurantList, Target{})
	require.Equal(t, Scoped, dec.Effect)
	assert.Empty(t, dec.RestaurantIDs)

	// Targeted actions resolve to Deny, not an error.
	rid := uint(1)
	dec = p.Decide(context.Background(), Actor{ID: 99, Role: models.RoleManager}, ActionRestaurantUpdate, Target{RestaurantID: &rid})
	assert.Equal(t, Deny, dec.Effect)
}

func TestDeletedRestaurantLeavesScope(t *testing.T) {
	db := newTestDB(t)
	p := New(NewScopeResolver(db))

	managerID := uint(3)
	r := seedRestaurant(t, db, &managerID, 10)
	require.NoError(t, db.Model(r).Update("is_deleted", true).Error)

	dec := p.Decide(context.Background(), Actor{ID: managerID, Role: models.RoleManager}, ActionRestaurantUpdate, Target{RestaurantID: &r.ID})
	assert.Equal(t, Deny, dec.Effect)
}

func TestScopeRecomputedAfterReassignment(t *testing.T) {
	db := newTestDB(t)
	resolver := NewScopeResolver(db)

	managerID := uint(20)
	r := seedRestaurant(t, db, &managerID, 10)

	owns, err := resolver.IsOwner(context.Background(), managerID, r.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	// Admin reassigns; the very next check must see the new owner.
	newOwner := uint(21)
	require.NoError(t, db.Model(r).Update("manager_id", newOwner).Error)

	owns, err = resolver.IsOwner(context.Background(), managerID, r.ID)
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestCustomerOwnResourcesOnly(t *testing.T) {
	p := New(NewScopeResolver(newTestDB(t)))
	customer := Actor{ID: 5, Role: models.RoleCustomer}

	own := uint(5)
	other := uint(6)

	dec := p.Decide(context.Background(), customer, ActionReservationWrite, Target{CustomerID: &own})
	assert.Equal(t, Allow, dec.Effect)

	dec = p.Decide(context.Background(), customer, ActionReservationWrite, Target{CustomerID: &other})
	assert.Equal(t, Deny, dec.Effect)

	// Missing ownership linkage fails closed.
	dec = p.Decide(context.Background(), customer, ActionBookingRead, Target{})
	assert.Equal(t, Deny, dec.Effect)

	// Customers never get management actions.
	rid := uint(1)
	dec = p.Decide(context.Background(), customer, ActionRestaurantUpdate, Target{RestaurantID: &rid})
	assert.Equal(t, Deny, dec.Effect)
}
