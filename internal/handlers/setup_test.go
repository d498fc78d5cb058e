package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/bluesky/api/internal/access"
	"github.com/stwalsh4118/bluesky/api/internal/authz"
	"github.com/stwalsh4118/bluesky/api/internal/logger"
	"github.com/stwalsh4118/bluesky/api/internal/middleware"
	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/pagination"
	"github.com/stwalsh4118/bluesky/api/internal/services"
)

const (
	testSecret = "handler-secret"
	testIssuer = "bluesky"

	testOrg    = int64(1)
	viewerID   = int64(10)
	memberID   = int64(11)
	outsiderID = int64(12)
)

// MockInventoryService is a mock implementation of services.InventoryService.
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) ListProperties(ctx context.Context, orgID int64, req pagination.Request) (*services.PropertyPage, error) {
	args := m.Called(ctx, orgID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertyPage), args.Error(1)
}

func (m *MockInventoryService) GetProperty(ctx context.Context, orgID, propertyID int64) (*services.PropertyDetail, error) {
	args := m.Called(ctx, orgID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertyDetail), args.Error(1)
}

func (m *MockInventoryService) ListTaxLots(ctx context.Context, orgID int64, req pagination.Request) (*services.TaxLotPage, error) {
	args := m.Called(ctx, orgID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TaxLotPage), args.Error(1)
}

func (m *MockInventoryService) GetTaxLot(ctx context.Context, orgID, taxlotID int64) (*services.TaxLotDetail, error) {
	args := m.Called(ctx, orgID, taxlotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TaxLotDetail), args.Error(1)
}

// MockColumnService is a mock implementation of services.ColumnService.
type MockColumnService struct {
	mock.Mock
}

func (m *MockColumnService) ListColumns(ctx context.Context, orgID int64, inventoryType string, usedOnly bool) ([]services.ColumnInfo, error) {
	args := m.Called(ctx, orgID, inventoryType, usedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.ColumnInfo), args.Error(1)
}

func (m *MockColumnService) GetColumn(ctx context.Context, orgID, columnID int64) (*models.Column, error) {
	args := m.Called(ctx, orgID, columnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Column), args.Error(1)
}

func (m *MockColumnService) DeleteAllColumns(ctx context.Context, orgID int64) (*services.DeleteAllResult, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DeleteAllResult), args.Error(1)
}

func (m *MockColumnService) AddColumnNames(ctx context.Context, orgID int64, inventoryType, inventoryPK string) ([]models.Column, error) {
	args := m.Called(ctx, orgID, inventoryType, inventoryPK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Column), args.Error(1)
}

func (m *MockColumnService) ListMappings(ctx context.Context, orgID int64) ([]models.ColumnMapping, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ColumnMapping), args.Error(1)
}

func (m *MockColumnService) GetMapping(ctx context.Context, orgID, mappingID int64) (*models.ColumnMapping, error) {
	args := m.Called(ctx, orgID, mappingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ColumnMapping), args.Error(1)
}

func (m *MockColumnService) DeleteAllMappings(ctx context.Context, orgID int64) (int64, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockColumnService) ListSettings(ctx context.Context, orgID int64) ([]models.ColumnListSetting, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ColumnListSetting), args.Error(1)
}

func (m *MockColumnService) GetSetting(ctx context.Context, orgID, settingID int64) (*models.ColumnListSetting, error) {
	args := m.Called(ctx, orgID, settingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ColumnListSetting), args.Error(1)
}

func (m *MockColumnService) CreateSetting(ctx context.Context, orgID int64, in services.ColumnListSettingInput) (*models.ColumnListSetting, error) {
	args := m.Called(ctx, orgID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ColumnListSetting), args.Error(1)
}

func (m *MockColumnService) UpdateSetting(ctx context.Context, orgID, settingID int64, in services.ColumnListSettingInput) (*models.ColumnListSetting, error) {
	args := m.Called(ctx, orgID, settingID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ColumnListSetting), args.Error(1)
}

func (m *MockColumnService) DeleteSetting(ctx context.Context, orgID, settingID int64) error {
	args := m.Called(ctx, orgID, settingID)
	return args.Error(0)
}

// memberships is an in-memory OrganizationRepository for the access chain.
type memberships map[int64]string

func (m memberships) Exists(ctx context.Context, orgID int64) (bool, error) {
	return orgID == testOrg, nil
}

func (m memberships) FindMembership(ctx context.Context, orgID, userID int64) (*models.OrganizationUser, error) {
	role, ok := m[userID]
	if !ok || orgID != testOrg {
		return nil, nil
	}
	return &models.OrganizationUser{OrganizationID: orgID, UserID: userID, Role: role}, nil
}

type testServer struct {
	router    *gin.Engine
	inventory *MockInventoryService
	columns   *MockColumnService
	logs      *bytes.Buffer
}

// newTestServer wires the real middleware, access chain and casbin policy
// around mock services.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enforcer, err := authz.New("")
	require.NoError(t, err)

	members := memberships{viewerID: models.RoleViewer, memberID: models.RoleMember}
	guard := access.Guard(access.NewJWTVerifier(testSecret, testIssuer), members, enforcer)

	srv := &testServer{
		router:    gin.New(),
		inventory: new(MockInventoryService),
		columns:   new(MockColumnService),
		logs:      &bytes.Buffer{},
	}
	log := logger.NewWithWriter(srv.logs, zerolog.DebugLevel)
	srv.router.Use(middleware.RequestID())
	srv.router.Use(middleware.Logger(log))
	srv.router.Use(middleware.Recovery(log))

	RegisterRoutes(srv.router.Group("/api/v2"), NewInventoryHandler(srv.inventory), NewColumnHandler(srv.columns), guard)
	return srv
}

func (s *testServer) do(t *testing.T, method, target string, userID int64, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, err := access.IssueToken(testSecret, testIssuer, userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func strPtr(s string) *string {
	return &s
}
