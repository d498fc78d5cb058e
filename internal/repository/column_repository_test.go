package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/bluesky/api/internal/models"
)

func TestColumnRepository_ExtraDataColumns(t *testing.T) {
	db := setupTestDB(t)
	f := newFixture(t, db, "columns")
	repo := NewColumnRepository(db)
	ctx := context.Background()

	created, err := repo.EnsureExtraDataColumns(ctx, f.org.ID, models.TablePropertyState, []string{"owner", "zoning"})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = repo.EnsureExtraDataColumns(ctx, f.org.ID, models.TablePropertyState, []string{"owner", "units"})
	require.NoError(t, err)
	assert.Equal(t, 1, created, "existing columns are not duplicated")

	columns, err := repo.ListExtraDataColumns(ctx, f.org.ID, models.TablePropertyState)
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "owner", columns[0].ColumnName)

	taxlotColumns, err := repo.ListExtraDataColumns(ctx, f.org.ID, models.TableTaxLotState)
	require.NoError(t, err)
	assert.Empty(t, taxlotColumns)

	count, err := repo.CountColumns(ctx, f.org.ID, []int64{columns[0].ID, columns[1].ID, -5})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestColumnRepository_DeleteAll(t *testing.T) {
	db := setupTestDB(t)
	f := newFixture(t, db, "delete-all")
	repo := NewColumnRepository(db)
	mappings := NewColumnMappingRepository(db)
	ctx := context.Background()

	raw := models.Column{OrganizationID: f.org.ID, StateTable: models.TablePropertyState, ColumnName: "Address"}
	mapped := models.Column{OrganizationID: f.org.ID, StateTable: models.TablePropertyState, ColumnName: "address_line_1"}
	f.create(&raw)
	f.create(&mapped)
	f.create(&models.ColumnMapping{SuperOrganizationID: f.org.ID, ColumnRawID: raw.ID, ColumnMappedID: &mapped.ID})

	used, err := repo.MappedColumnIDs(ctx, f.org.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{raw.ID, mapped.ID}, used)

	list, err := mappings.ListMappings(ctx, f.org.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ColumnRaw)
	assert.Equal(t, "Address", list[0].ColumnRaw.ColumnName)

	columns, deleted, err := repo.DeleteAll(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), columns)
	assert.Equal(t, int64(1), deleted)

	found, err := repo.FindColumn(ctx, raw.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestColumnRepository_FindStates(t *testing.T) {
	db := setupTestDB(t)
	f := newFixture(t, db, "states")
	other := newFixture(t, db, "states-other")
	repo := NewColumnRepository(db)
	ctx := context.Background()

	first := models.PropertyState{OrganizationID: f.org.ID, ExtraData: models.ExtraData{"a": 1}}
	latest := models.PropertyState{OrganizationID: f.org.ID, ExtraData: models.ExtraData{"b": 2}}
	foreign := models.PropertyState{OrganizationID: other.org.ID}
	f.create(&first)
	f.create(&latest)
	other.create(&foreign)

	state, err := repo.FindPropertyState(ctx, f.org.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, latest.ID, state.ID)

	state, err = repo.FindPropertyState(ctx, f.org.ID, &first.ID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, []string{"a"}, state.ExtraData.Keys())

	state, err = repo.FindPropertyState(ctx, f.org.ID, &foreign.ID)
	require.NoError(t, err)
	assert.Nil(t, state)

	lot, err := repo.FindTaxLotState(ctx, f.org.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, lot)
}

func TestColumnListSettingRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	f := newFixture(t, db, "list-settings")
	repo := NewColumnListSettingRepository(db)
	ctx := context.Background()

	c1 := models.Column{OrganizationID: f.org.ID, StateTable: models.TablePropertyState, ColumnName: "city"}
	c2 := models.Column{OrganizationID: f.org.ID, StateTable: models.TablePropertyState, ColumnName: "state"}
	f.create(&c1)
	f.create(&c2)

	setting := &models.ColumnListSetting{
		OrganizationID:   f.org.ID,
		Name:             "default",
		SettingsLocation: "List View Settings",
		InventoryType:    "Property",
		Columns: []models.ColumnListSettingColumn{
			{ColumnID: c2.ID, Order: 2},
			{ColumnID: c1.ID, Order: 1, Pinned: true},
		},
	}
	require.NoError(t, repo.CreateSetting(ctx, setting))
	require.NotZero(t, setting.ID)

	found, err := repo.FindSetting(ctx, f.org.ID, setting.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Columns, 2)
	assert.Equal(t, c1.ID, found.Columns[0].ColumnID, "columns are returned in order")

	setting.Name = "renamed"
	setting.Columns = []models.ColumnListSettingColumn{{ColumnID: c2.ID, Order: 1}}
	require.NoError(t, repo.UpdateSetting(ctx, setting))

	found, err = repo.FindSetting(ctx, f.org.ID, setting.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", found.Name)
	require.Len(t, found.Columns, 1)

	missing, err := repo.FindSetting(ctx, f.org.ID+1000000, setting.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	settings, err := repo.ListSettings(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Len(t, settings, 1)

	deleted, err := repo.DeleteSetting(ctx, f.org.ID, setting.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteSetting(ctx, f.org.ID, setting.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
