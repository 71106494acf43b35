package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddygate/paddygate/internal/models"
)

func newMillService(repo MillRepository) *MillService {
	logger, _ := NewTestLoggers()
	return NewMillService(repo, nil, logger)
}

func TestMillService_ListPublic_OnlyVerified(t *testing.T) {
	var got models.MillFilter
	repo := &MockMillRepository{
		ListFunc: func(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error) {
			got = filter
			return []*models.Mill{NewTestMill("m1", "o1", "Kandy")}, nil
		},
	}

	mills, err := newMillService(repo).ListPublic(context.Background(), "Kandy", models.VarietyBasmati)

	require.NoError(t, err)
	assert.Len(t, mills, 1)
	assert.Equal(t, models.MillFilter{
		District:       "Kandy",
		Specialization: models.VarietyBasmati,
		Status:         models.VerificationVerified,
	}, got)
}

func TestMillService_ListOwned(t *testing.T) {
	var got models.MillFilter
	repo := &MockMillRepository{
		ListFunc: func(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error) {
			got = filter
			return []*models.Mill{}, nil
		},
	}

	_, err := newMillService(repo).ListOwned(context.Background(), "owner-1")

	require.NoError(t, err)
	assert.Equal(t, models.MillFilter{OwnerID: "owner-1"}, got)
}

func TestMillService_Create_IgnoresClientOwner(t *testing.T) {
	caller := NewTestUser("miller-1", "bob", models.RoleMiller, models.AccountActive)
	repo := &MockMillRepository{
		CreateFunc: func(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
			mill.ID = "mill-1"
			return mill, nil
		},
	}

	mill, err := newMillService(repo).Create(context.Background(), caller, MillInput{
		Name:            "Golden",
		Location:        models.MillLocation{District: "Kandy"},
		Specializations: []models.RiceVariety{models.VarietyBasmati},
	})

	require.NoError(t, err)
	assert.Equal(t, caller.ID, mill.OwnerID)
	assert.Equal(t, models.VerificationPending, mill.VerificationStatus)
}

func TestMillService_Create_RejectsUnknownVariety(t *testing.T) {
	caller := NewTestUser("miller-1", "bob", models.RoleMiller, models.AccountActive)

	_, err := newMillService(&MockMillRepository{}).Create(context.Background(), caller, MillInput{
		Name:            "Golden",
		Specializations: []models.RiceVariety{"Jasmine"},
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestMillService_Update(t *testing.T) {
	owner := NewTestUser("miller-1", "bob", models.RoleMiller, models.AccountActive)
	other := NewTestUser("miller-2", "carol", models.RoleMiller, models.AccountActive)
	newName := "Silver Rice Mill"
	newSpecs := []models.RiceVariety{models.VarietyRedRice}

	tests := []struct {
		name    string
		caller  *models.User
		id      string
		changes MillUpdate
		wantErr error
	}{
		{name: "owner renames", caller: owner, id: "mill-1", changes: MillUpdate{Name: &newName}},
		{name: "owner changes specializations", caller: owner, id: "mill-1", changes: MillUpdate{Specializations: &newSpecs}},
		{name: "non-owner forbidden", caller: other, id: "mill-1", changes: MillUpdate{Name: &newName}, wantErr: models.ErrForbidden},
		{name: "missing mill", caller: owner, id: "missing", changes: MillUpdate{Name: &newName}, wantErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updateCalled := false
			repo := &MockMillRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*models.Mill, error) {
					if id == "mill-1" {
						return NewTestMill("mill-1", owner.ID, "Kandy"), nil
					}
					return nil, models.ErrNotFound
				},
				UpdateFunc: func(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
					updateCalled = true
					return mill, nil
				},
			}

			mill, err := newMillService(repo).Update(context.Background(), tt.caller, tt.id, tt.changes)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, updateCalled)
				return
			}
			require.NoError(t, err)
			assert.True(t, updateCalled)
			assert.Equal(t, owner.ID, mill.OwnerID)
			if tt.changes.Name != nil {
				assert.Equal(t, newName, mill.Name)
				assert.Equal(t, []models.RiceVariety{models.VarietyBasmati}, mill.Specializations)
			}
			if tt.changes.Specializations != nil {
				assert.Equal(t, newSpecs, mill.Specializations)
				assert.Equal(t, "Golden Rice Mill", mill.Name)
			}
		})
	}
}

func TestMillService_Update_StoreRejects(t *testing.T) {
	owner := NewTestUser("miller-1", "bob", models.RoleMiller, models.AccountActive)
	name := "Silver Rice Mill"
	repo := &MockMillRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Mill, error) {
			return NewTestMill(id, owner.ID, "Kandy"), nil
		},
		UpdateFunc: func(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
			return nil, models.ErrBadRequest
		},
	}

	_, err := newMillService(repo).Update(context.Background(), owner, "mill-1", MillUpdate{Name: &name})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestMillService_Update_ChecksOwnerBeforeFields(t *testing.T) {
	owner := NewTestUser("miller-1", "bob", models.RoleMiller, models.AccountActive)
	other := NewTestUser("miller-2", "carol", models.RoleMiller, models.AccountActive)
	short := "x"
	badSpecs := []models.RiceVariety{models.VarietyBasmati, "Jasmine"}

	tests := []struct {
		name      string
		caller    *models.User
		id        string
		changes   MillUpdate
		wantErr   error
		wantField string
	}{
		{name: "non-owner with short name", caller: other, id: "mill-1", changes: MillUpdate{Name: &short}, wantErr: models.ErrForbidden},
		{name: "missing mill with unknown variety", caller: owner, id: "missing", changes: MillUpdate{Specializations: &badSpecs}, wantErr: models.ErrNotFound},
		{name: "owner with short name", caller: owner, id: "mill-1", changes: MillUpdate{Name: &short}, wantErr: models.ErrBadRequest, wantField: "name"},
		{name: "owner with unknown variety", caller: owner, id: "mill-1", changes: MillUpdate{Specializations: &badSpecs}, wantErr: models.ErrBadRequest, wantField: "specializations[1]"},
		{name: "owner clears district", caller: owner, id: "mill-1", changes: MillUpdate{Location: &models.MillLocation{}}, wantErr: models.ErrBadRequest, wantField: "location.district"},
		{name: "owner with bad phone", caller: owner, id: "mill-1", changes: MillUpdate{ContactInfo: &models.ContactInfo{Phone: "12345"}}, wantErr: models.ErrBadRequest, wantField: "contactInfo.phone"},
		{name: "owner with bad email", caller: owner, id: "mill-1", changes: MillUpdate{ContactInfo: &models.ContactInfo{Email: "nope"}}, wantErr: models.ErrBadRequest, wantField: "contactInfo.email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockMillRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*models.Mill, error) {
					if id == "mill-1" {
						return NewTestMill("mill-1", owner.ID, "Kandy"), nil
					}
					return nil, models.ErrNotFound
				},
				UpdateFunc: func(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
					t.Fatal("store must not be written")
					return nil, nil
				},
			}

			_, err := newMillService(repo).Update(context.Background(), tt.caller, tt.id, tt.changes)

			assert.ErrorIs(t, err, tt.wantErr)
			var fe *models.FieldError
			if tt.wantField == "" {
				assert.False(t, errors.As(err, &fe))
				return
			}
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestMillService_Update_RetiresCachedPrices(t *testing.T) {
	owner := NewTestUser("miller-1", "bob", models.RoleMiller, models.AccountActive)
	name := "Silver Rice Mill"
	stored := models.PriceFilter{District: "Kandy"}
	prices := &MockPriceCache{Entries: map[models.PriceFilter][]*models.Price{stored: {{ID: "p1"}}}}
	failUpdate := false
	repo := &MockMillRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Mill, error) {
			return NewTestMill(id, owner.ID, "Kandy"), nil
		},
		UpdateFunc: func(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
			if failUpdate {
				return nil, errors.New("down")
			}
			return mill, nil
		},
	}
	logger, _ := NewTestLoggers()
	svc := NewMillService(repo, prices, logger)

	failUpdate = true
	_, err := svc.Update(context.Background(), owner, "mill-1", MillUpdate{Name: &name})
	require.ErrorIs(t, err, models.ErrInternalServer)
	assert.Zero(t, prices.Invalidations)

	failUpdate = false
	_, err = svc.Update(context.Background(), owner, "mill-1", MillUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, 1, prices.Invalidations)
	_, _, ok := prices.Get(context.Background(), stored)
	assert.False(t, ok, "listings embedding the old mill summary must not be served")
}

func TestMillService_ListPublic_StoreFailure(t *testing.T) {
	repo := &MockMillRepository{
		ListFunc: func(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error) {
			return nil, errors.New("timeout")
		},
	}

	_, err := newMillService(repo).ListPublic(context.Background(), "", "")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}
