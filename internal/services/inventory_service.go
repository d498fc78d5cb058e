package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stwalsh4118/bluesky/api/internal/logger"
	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/pagination"
	"github.com/stwalsh4118/bluesky/api/internal/repository"
)

// Service-level errors
var (
	ErrInvalidOrganization = errors.New("invalid organization id")
	ErrPropertyNotFound    = errors.New("property not found")
	ErrTaxLotNotFound      = errors.New("tax lot not found")
)

var tracer = otel.Tracer("github.com/stwalsh4118/bluesky/api/internal/services")

// Related is one opposite-side record attached to a listed view.
type Related[S any] struct {
	Primary bool
	State   S
}

// Entry is one listed view with its related opposite-side states in
// association order.
type Entry[V, S any] struct {
	View    V
	Related []Related[S]
}

// Page is one page of listed views.
type Page[V, S any] struct {
	Pagination pagination.Info
	Results    []Entry[V, S]
}

// Detail is a single view with the full opposite-side views linked to it.
type Detail[V, O any] struct {
	View    V
	Related []O
}

type (
	// PropertyPage lists property views with related tax lot states.
	PropertyPage = Page[models.PropertyView, models.TaxLotState]
	// TaxLotPage lists tax lot views with related property states.
	TaxLotPage = Page[models.TaxLotView, models.PropertyState]
	// PropertyDetail is a property view with its tax lot views.
	PropertyDetail = Detail[models.PropertyView, models.TaxLotView]
	// TaxLotDetail is a tax lot view with its property views.
	TaxLotDetail = Detail[models.TaxLotView, models.PropertyView]
)

// InventoryService defines read operations over property and tax lot views.
// Every operation is scoped to one organization.
type InventoryService interface {
	// ListProperties returns one page of property views, each with the states
	// of the tax lots linked to it.
	// Returns ErrInvalidOrganization if orgID is not positive.
	ListProperties(ctx context.Context, orgID int64, req pagination.Request) (*PropertyPage, error)

	// GetProperty returns the view of one property with its linked tax lot views.
	// Returns ErrPropertyNotFound if the property does not exist in the organization.
	GetProperty(ctx context.Context, orgID, propertyID int64) (*PropertyDetail, error)

	// ListTaxLots mirrors ListProperties for tax lot views.
	ListTaxLots(ctx context.Context, orgID int64, req pagination.Request) (*TaxLotPage, error)

	// GetTaxLot mirrors GetProperty for tax lots.
	// Returns ErrTaxLotNotFound if the tax lot does not exist in the organization.
	GetTaxLot(ctx context.Context, orgID, taxlotID int64) (*TaxLotDetail, error)
}

// inventoryService is the concrete implementation of InventoryService.
type inventoryService struct {
	repo repository.InventoryRepository
	log  *logger.Logger

	properties inventorySide[models.PropertyView, models.TaxLotView, models.TaxLotState]
	taxlots    inventorySide[models.TaxLotView, models.PropertyView, models.PropertyState]
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(repo repository.InventoryRepository, log *logger.Logger) InventoryService {
	s := &inventoryService{
		repo: repo,
		log:  log.WithComponent("inventory"),
	}

	s.properties = inventorySide[models.PropertyView, models.TaxLotView, models.TaxLotState]{
		name:      "property",
		notFound:  ErrPropertyNotFound,
		count:     repo.CountPropertyViews,
		list:      repo.ListPropertyViews,
		find:      repo.FindPropertyViewByProperty,
		links:     repo.LinksByPropertyViews,
		opposites: repo.FindTaxLotViewsByIDs,
		viewID:    func(v models.PropertyView) int64 { return v.ID },
		otherID:   func(v models.TaxLotView) int64 { return v.ID },
		stateOf:   func(v models.TaxLotView) models.TaxLotState { return v.State },
		selfEnd:   func(l models.TaxLotProperty) int64 { return l.PropertyViewID },
		otherEnd:  func(l models.TaxLotProperty) int64 { return l.TaxLotViewID },
	}

	s.taxlots = inventorySide[models.TaxLotView, models.PropertyView, models.PropertyState]{
		name:      "taxlot",
		notFound:  ErrTaxLotNotFound,
		count:     repo.CountTaxLotViews,
		list:      repo.ListTaxLotViews,
		find:      repo.FindTaxLotViewByTaxLot,
		links:     repo.LinksByTaxLotViews,
		opposites: repo.FindPropertyViewsByIDs,
		viewID:    func(v models.TaxLotView) int64 { return v.ID },
		otherID:   func(v models.PropertyView) int64 { return v.ID },
		stateOf:   func(v models.PropertyView) models.PropertyState { return v.State },
		selfEnd:   func(l models.TaxLotProperty) int64 { return l.TaxLotViewID },
		otherEnd:  func(l models.TaxLotProperty) int64 { return l.PropertyViewID },
	}

	return s
}

// inventorySide describes one direction of the property/tax lot relation:
// V is the primary view type, O the opposite view type and S the opposite state.
type inventorySide[V, O, S any] struct {
	name     string
	notFound error

	count     func(ctx context.Context, orgID int64) (int, error)
	list      func(ctx context.Context, orgID int64, offset, limit int) ([]V, error)
	find      func(ctx context.Context, orgID, containerID int64) (*V, error)
	links     func(ctx context.Context, orgID int64, viewIDs []int64) ([]models.TaxLotProperty, error)
	opposites func(ctx context.Context, orgID int64, ids []int64) ([]O, error)

	viewID   func(V) int64
	otherID  func(O) int64
	stateOf  func(O) S
	selfEnd  func(models.TaxLotProperty) int64
	otherEnd func(models.TaxLotProperty) int64
}

func (s *inventoryService) ListProperties(ctx context.Context, orgID int64, req pagination.Request) (*PropertyPage, error) {
	return listPlan(ctx, s.log, s.properties, orgID, req)
}

func (s *inventoryService) GetProperty(ctx context.Context, orgID, propertyID int64) (*PropertyDetail, error) {
	return detailPlan(ctx, s.log, s.properties, orgID, propertyID)
}

func (s *inventoryService) ListTaxLots(ctx context.Context, orgID int64, req pagination.Request) (*TaxLotPage, error) {
	return listPlan(ctx, s.log, s.taxlots, orgID, req)
}

func (s *inventoryService) GetTaxLot(ctx context.Context, orgID, taxlotID int64) (*TaxLotDetail, error) {
	return detailPlan(ctx, s.log, s.taxlots, orgID, taxlotID)
}

// listPlan pages the organization's views of one side and attaches, per view,
// the states of the opposite views linked to it.
func listPlan[V, O, S any](ctx context.Context, log *logger.Logger, side inventorySide[V, O, S], orgID int64, req pagination.Request) (page *Page[V, S], err error) {
	ctx, span := tracer.Start(ctx, "inventory.list_"+side.name+"s",
		trace.WithAttributes(attribute.Int64("organization_id", orgID)),
	)
	defer func() { endSpan(span, err) }()

	if orgID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrganization, orgID)
	}

	req, err = req.Normalize()
	if err != nil {
		return nil, err
	}

	total, err := side.count(ctx, orgID)
	if err != nil {
		log.Error("Failed to count views", err, map[string]interface{}{
			"side":            side.name,
			"organization_id": orgID,
		})
		return nil, fmt.Errorf("failed to count %s views: %w", side.name, err)
	}

	info := pagination.Paginate(total, req)
	span.SetAttributes(
		attribute.Int("page", info.Page),
		attribute.Int("per_page", info.PerPage()),
		attribute.Int("total", total),
	)

	views, err := side.list(ctx, orgID, info.Offset(), info.Limit())
	if err != nil {
		log.Error("Failed to list views", err, map[string]interface{}{
			"side":            side.name,
			"organization_id": orgID,
			"page":            info.Page,
		})
		return nil, fmt.Errorf("failed to list %s views: %w", side.name, err)
	}

	viewIDs := make([]int64, len(views))
	for i, v := range views {
		viewIDs[i] = side.viewID(v)
	}

	links, opposite, err := loadRelated(ctx, side, orgID, viewIDs)
	if err != nil {
		log.Error("Failed to load related views", err, map[string]interface{}{
			"side":            side.name,
			"organization_id": orgID,
		})
		return nil, err
	}

	related := groupRelated(links, opposite, side.selfEnd, side.otherEnd, side.otherID,
		func(link models.TaxLotProperty, o O) Related[S] {
			return Related[S]{Primary: link.Primary, State: side.stateOf(o)}
		},
	)

	page = &Page[V, S]{
		Pagination: info,
		Results:    make([]Entry[V, S], 0, len(views)),
	}
	relatedCount := 0
	for _, v := range views {
		entries := related[side.viewID(v)]
		if entries == nil {
			entries = []Related[S]{}
		}
		relatedCount += len(entries)
		page.Results = append(page.Results, Entry[V, S]{View: v, Related: entries})
	}
	span.SetAttributes(attribute.Int("related_count", relatedCount))

	log.Debug("Listed views", map[string]interface{}{
		"side":            side.name,
		"organization_id": orgID,
		"page":            info.Page,
		"results":         len(page.Results),
		"related":         relatedCount,
	})

	return page, nil
}

// detailPlan loads one view of one side by its container id together with
// every opposite view linked to it.
func detailPlan[V, O, S any](ctx context.Context, log *logger.Logger, side inventorySide[V, O, S], orgID, containerID int64) (detail *Detail[V, O], err error) {
	ctx, span := tracer.Start(ctx, "inventory.get_"+side.name,
		trace.WithAttributes(
			attribute.Int64("organization_id", orgID),
			attribute.Int64(side.name+"_id", containerID),
		),
	)
	defer func() { endSpan(span, err) }()

	if orgID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrganization, orgID)
	}

	view, err := side.find(ctx, orgID, containerID)
	if err != nil {
		log.Error("Failed to query view", err, map[string]interface{}{
			"side":            side.name,
			"organization_id": orgID,
			"container_id":    containerID,
		})
		return nil, fmt.Errorf("failed to query %s view: %w", side.name, err)
	}

	// Repository returns nil, nil when nothing matches in the organization
	if view == nil {
		log.Debug("View not found", map[string]interface{}{
			"side":            side.name,
			"organization_id": orgID,
			"container_id":    containerID,
		})
		return nil, side.notFound
	}

	viewID := side.viewID(*view)
	links, opposite, err := loadRelated(ctx, side, orgID, []int64{viewID})
	if err != nil {
		log.Error("Failed to load related views", err, map[string]interface{}{
			"side":            side.name,
			"organization_id": orgID,
			"view_id":         viewID,
		})
		return nil, err
	}

	grouped := groupRelated(links, opposite, side.selfEnd, side.otherEnd, side.otherID,
		func(_ models.TaxLotProperty, o O) O { return o },
	)

	detail = &Detail[V, O]{View: *view, Related: []O{}}
	detail.Related = append(detail.Related, grouped[viewID]...)
	span.SetAttributes(attribute.Int("related_count", len(detail.Related)))

	return detail, nil
}

// loadRelated fetches the association rows naming viewIDs and the opposite
// views those rows point at. Both fetches are scoped to the organization.
func loadRelated[V, O, S any](ctx context.Context, side inventorySide[V, O, S], orgID int64, viewIDs []int64) ([]models.TaxLotProperty, []O, error) {
	if len(viewIDs) == 0 {
		return nil, nil, nil
	}

	links, err := side.links(ctx, orgID, viewIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s links: %w", side.name, err)
	}
	if len(links) == 0 {
		return links, nil, nil
	}

	otherIDs := make([]int64, 0, len(links))
	seen := make(map[int64]struct{}, len(links))
	for _, l := range links {
		id := side.otherEnd(l)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		otherIDs = append(otherIDs, id)
	}

	opposite, err := side.opposites(ctx, orgID, otherIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query views related to %s views: %w", side.name, err)
	}

	return links, opposite, nil
}

// linkPair identifies an association by its two view ids.
type linkPair struct{ self, other int64 }

// groupRelated maps each primary view id to the records built from its
// association rows, in association row order. Rows whose opposite view is not
// among opposite are dropped, and only the first row of a repeated pair counts.
func groupRelated[O, R any](
	links []models.TaxLotProperty,
	opposite []O,
	selfEnd, otherEnd func(models.TaxLotProperty) int64,
	otherID func(O) int64,
	build func(models.TaxLotProperty, O) R,
) map[int64][]R {
	byID := make(map[int64]O, len(opposite))
	for _, o := range opposite {
		byID[otherID(o)] = o
	}

	seen := make(map[linkPair]struct{}, len(links))
	grouped := make(map[int64][]R)
	for _, link := range links {
		o, ok := byID[otherEnd(link)]
		if !ok {
			continue
		}
		p := linkPair{self: selfEnd(link), other: otherEnd(link)}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		grouped[p.self] = append(grouped[p.self], build(link, o))
	}
	return grouped
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
