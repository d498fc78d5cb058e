package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stwalsh4118/bluesky/api/internal/config"
	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     os.Getenv("TEST_DB_HOST"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "5432"),
		Name:     getEnvOrDefault("TEST_DB_NAME", "bluesky_test"),
		User:     getEnvOrDefault("TEST_DB_USER", "postgres"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDB connects to the integration database and migrates the schema.
// Tests are skipped unless TEST_DB_HOST is set.
func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("set TEST_DB_HOST to run repository integration tests")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}
	return db
}

// fixture seeds inventory rows for one organization and removes them afterwards.
type fixture struct {
	t   *testing.T
	db  *database.Database
	org models.Organization
}

func newFixture(t *testing.T, db *database.Database, name string) *fixture {
	t.Helper()

	f := &fixture{t: t, db: db, org: models.Organization{Name: name}}
	f.create(&f.org)

	t.Cleanup(func() {
		orgID := f.org.ID
		g := db.Gorm
		g.Exec(`DELETE FROM taxlot_properties WHERE property_view_id IN
			(SELECT v.id FROM property_views v JOIN properties p ON p.id = v.property_id WHERE p.organization_id = ?)`, orgID)
		g.Exec(`DELETE FROM property_views WHERE property_id IN (SELECT id FROM properties WHERE organization_id = ?)`, orgID)
		g.Exec(`DELETE FROM taxlot_views WHERE taxlot_id IN (SELECT id FROM taxlots WHERE organization_id = ?)`, orgID)
		g.Exec(`DELETE FROM column_list_setting_columns WHERE column_list_setting_id IN
			(SELECT id FROM column_list_settings WHERE organization_id = ?)`, orgID)
		for _, table := range []string{
			"properties", "taxlots", "property_states", "taxlot_states", "cycles",
			"columns", "column_list_settings", "organization_users",
		} {
			g.Exec("DELETE FROM "+table+" WHERE organization_id = ?", orgID)
		}
		g.Exec("DELETE FROM column_mappings WHERE super_organization_id = ?", orgID)
		g.Exec("DELETE FROM organizations WHERE id = ?", orgID)
	})

	return f
}

func (f *fixture) create(value interface{}) {
	f.t.Helper()
	if err := f.db.Gorm.Create(value).Error; err != nil {
		f.t.Fatalf("seed %T: %v", value, err)
	}
}

func (f *fixture) cycle(name string, start time.Time) models.Cycle {
	c := models.Cycle{OrganizationID: f.org.ID, Name: name, Start: start, End: start.AddDate(1, 0, 0)}
	f.create(&c)
	return c
}

func (f *fixture) propertyView(cycle models.Cycle, address string, extra models.ExtraData) models.PropertyView {
	p := models.Property{OrganizationID: f.org.ID}
	f.create(&p)
	return f.propertyViewFor(p, cycle, address, extra)
}

func (f *fixture) propertyViewFor(p models.Property, cycle models.Cycle, address string, extra models.ExtraData) models.PropertyView {
	s := models.PropertyState{OrganizationID: f.org.ID, AddressLine1: &address, ExtraData: extra}
	f.create(&s)
	v := models.PropertyView{PropertyID: p.ID, CycleID: cycle.ID, StateID: s.ID}
	if err := f.db.Gorm.Omit("Property", "State", "Cycle").Create(&v).Error; err != nil {
		f.t.Fatalf("seed property view: %v", err)
	}
	return v
}

func (f *fixture) taxlotView(cycle models.Cycle, jurisdictionID string) models.TaxLotView {
	tl := models.TaxLot{OrganizationID: f.org.ID}
	f.create(&tl)
	s := models.TaxLotState{OrganizationID: f.org.ID, JurisdictionTaxLotID: &jurisdictionID}
	f.create(&s)
	v := models.TaxLotView{TaxLotID: tl.ID, CycleID: cycle.ID, StateID: s.ID}
	if err := f.db.Gorm.Omit("TaxLot", "State", "Cycle").Create(&v).Error; err != nil {
		f.t.Fatalf("seed tax lot view: %v", err)
	}
	return v
}

func (f *fixture) link(pv models.PropertyView, tv models.TaxLotView, primary bool) models.TaxLotProperty {
	l := models.TaxLotProperty{PropertyViewID: pv.ID, TaxLotViewID: tv.ID, Primary: primary}
	f.create(&l)
	return l
}
