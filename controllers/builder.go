package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/middleware"
	"pcstore/models"
	"pcstore/store"
)

// BuilderController serves the PC builder: platform component listings and
// the configurations shoppers assemble from them. Configurations belong to
// either a logged-in user or an anonymous session id.
type BuilderController struct {
	Builds   store.BuildStore
	Catalog  store.Catalog
	Products *store.Products
}

// NewBuilderController wires the builder over its stores. Products may be
// nil when the component listing endpoints are not served.
func NewBuilderController(builds store.BuildStore, catalog store.Catalog, products *store.Products) *BuilderController {
	return &BuilderController{Builds: builds, Catalog: catalog, Products: products}
}

// GetComponents lists active builder components for a platform, filtered by
// the query parameters and sorted cheapest first.
func (bc *BuilderController) GetComponents(w http.ResponseWriter, r *http.Request) {
	platform := mux.Vars(r)["platform"]
	if !models.ValidPlatform(platform) {
		writeError(w, http.StatusBadRequest, "Invalid platform")
		return
	}

	q := r.URL.Query()
	filter := store.ComponentFilter{
		Platform: platform,
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Socket:   q.Get("socket"),
		Chipset:  q.Get("chipset"),
	}
	if v := q.Get("minPrice"); v != "" {
		filter.PriceMin, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("maxPrice"); v != "" {
		filter.PriceMax, _ = strconv.ParseFloat(v, 64)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	products, err := bc.Products.ListComponents(ctx, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading components")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"platform":   platform,
		"components": products,
		"count":      len(products),
	})
}

// builderPriceRanges are the fixed price buckets the storefront filters on.
var builderPriceRanges = []map[string]interface{}{
	{"label": "Under 5,000", "min": 0, "max": 5000},
	{"label": "5,000 - 15,000", "min": 5000, "max": 15000},
	{"label": "15,000 - 30,000", "min": 15000, "max": 30000},
	{"label": "30,000 - 60,000", "min": 30000, "max": 60000},
	{"label": "Above 60,000", "min": 60000, "max": 0},
}

// GetPlatformFilters returns the distinct sockets, chipsets and brands
// available for a platform plus the static price buckets.
func (bc *BuilderController) GetPlatformFilters(w http.ResponseWriter, r *http.Request) {
	platform := mux.Vars(r)["platform"]
	if !models.ValidPlatform(platform) {
		writeError(w, http.StatusBadRequest, "Invalid platform")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	filters, err := bc.Products.ListBuilderFilters(ctx, platform)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading filters")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"platform":    platform,
		"filters":     filters,
		"priceRanges": builderPriceRanges,
	})
}

type createBuildRequest struct {
	Name      string             `json:"name"`
	Platform  string             `json:"platform"`
	UseCase   string             `json:"useCase"`
	Budget    models.BuildBudget `json:"budget"`
	SessionID string             `json:"sessionId"`
}

// CreateConfiguration starts an empty draft build. Logged-in callers own it
// through their user id; anonymous callers must send a session id.
func (bc *BuilderController) CreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req createBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidPlatform(req.Platform) {
		writeError(w, http.StatusBadRequest, "Platform must be intel or amd")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.ToUpper(req.Platform) + " Build"
	}
	cfg := models.NewPCConfiguration(name, req.Platform)
	if req.UseCase != "" {
		cfg.UseCase = req.UseCase
	}
	cfg.Budget = req.Budget

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		cfg.UserID = userID
	} else if req.SessionID != "" {
		cfg.SessionID = req.SessionID
	} else {
		writeError(w, http.StatusBadRequest, "Session id is required for anonymous builds")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := bc.Builds.Insert(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating configuration")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":       true,
		"configuration": cfg,
	})
}

// GetConfiguration returns one build by id.
func (bc *BuilderController) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cfg, ok := bc.loadBuild(ctx, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"configuration": cfg,
	})
}

// ListConfigurations returns the caller's builds: by user id when logged in,
// otherwise by the sessionId query parameter.
func (bc *BuilderController) ListConfigurations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var (
		configs []models.PCConfiguration
		err     error
	)
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		userID, idErr := primitive.ObjectIDFromHex(claims.UserID)
		if idErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		configs, err = bc.Builds.ListByUser(ctx, userID)
	} else if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		configs, err = bc.Builds.ListBySession(ctx, sessionID)
	} else {
		writeError(w, http.StatusBadRequest, "Session id or login required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading configurations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"configurations": configs,
		"count":          len(configs),
	})
}

type addComponentRequest struct {
	Slot      string `json:"slot"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AddComponent pins a product into a slot of the build. Components tagged
// for the other platform are rejected; universal parts always fit.
func (bc *BuilderController) AddComponent(w http.ResponseWriter, r *http.Request) {
	var req addComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidSlot(req.Slot) {
		writeError(w, http.StatusBadRequest, "Invalid component slot")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cfg, ok := bc.loadBuild(ctx, w, r)
	if !ok {
		return
	}
	if !bc.canEdit(r, cfg) {
		writeError(w, http.StatusForbidden, "Not authorized to modify this configuration")
		return
	}

	product, err := bc.Catalog.FindProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading product")
		return
	}
	if !product.IsActive {
		writeError(w, http.StatusBadRequest, "Product is not available")
		return
	}
	if product.BuilderSpecs == nil {
		writeError(w, http.StatusBadRequest, "Product is not a PC builder component")
		return
	}
	if !models.PlatformAllows(cfg.Platform, product.BuilderSpecs.Platform) {
		writeError(w, http.StatusBadRequest, "Component is not compatible with the "+cfg.Platform+" platform")
		return
	}

	cfg.AddComponent(req.Slot, product, req.Quantity)
	if err := bc.refreshCompatibility(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error checking compatibility")
		return
	}
	if err := bc.Builds.Update(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving configuration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"configuration": cfg,
	})
}

// RemoveComponent empties a slot of the build.
func (bc *BuilderController) RemoveComponent(w http.ResponseWriter, r *http.Request) {
	slot := mux.Vars(r)["slot"]
	if !models.ValidSlot(slot) {
		writeError(w, http.StatusBadRequest, "Invalid component slot")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cfg, ok := bc.loadBuild(ctx, w, r)
	if !ok {
		return
	}
	if !bc.canEdit(r, cfg) {
		writeError(w, http.StatusForbidden, "Not authorized to modify this configuration")
		return
	}
	if !cfg.RemoveComponent(slot) {
		writeError(w, http.StatusNotFound, "No component in that slot")
		return
	}
	if err := bc.refreshCompatibility(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error checking compatibility")
		return
	}
	if err := bc.Builds.Update(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving configuration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"configuration": cfg,
	})
}

// CheckCompatibility re-evaluates the build against current product specs
// and persists the outcome.
func (bc *BuilderController) CheckCompatibility(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cfg, ok := bc.loadBuild(ctx, w, r)
	if !ok {
		return
	}
	if err := bc.refreshCompatibility(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error checking compatibility")
		return
	}
	if err := bc.Builds.Update(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving configuration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"compatibility": cfg.Compatibility,
	})
}

// GetRecommendations lists public completed builds for a platform. A budget
// query narrows to totals within 20 percent either side of it.
func (bc *BuilderController) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	platform := mux.Vars(r)["platform"]
	if !models.ValidPlatform(platform) {
		writeError(w, http.StatusBadRequest, "Invalid platform")
		return
	}

	query := store.TemplateQuery{
		Platform: platform,
		UseCase:  r.URL.Query().Get("useCase"),
		Limit:    10,
	}
	if v := r.URL.Query().Get("budget"); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil || budget <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid budget")
			return
		}
		query.BudgetMin = budget * 0.8
		query.BudgetMax = budget * 1.2
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	configs, err := bc.Builds.ListTemplates(ctx, query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading recommendations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"recommendations": configs,
		"count":           len(configs),
	})
}

// SaveAsTemplate publishes a build as a recommendation template. Admin only,
// enforced by the route.
func (bc *BuilderController) SaveAsTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cfg, ok := bc.loadBuild(ctx, w, r)
	if !ok {
		return
	}
	cfg.Status = models.BuildStatusCompleted
	cfg.IsPublic = true
	if err := bc.Builds.Update(ctx, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving configuration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Configuration published as template",
		"configuration": cfg,
	})
}

// loadBuild resolves the {id} path variable. On failure it writes the error
// response and returns false.
func (bc *BuilderController) loadBuild(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.PCConfiguration, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid configuration ID")
		return nil, false
	}
	cfg, err := bc.Builds.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Configuration not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading configuration")
		return nil, false
	}
	return cfg, true
}

// canEdit guards mutations of user-owned builds. Session builds carry no
// credential beyond the id itself, so knowing the id grants access.
func (bc *BuilderController) canEdit(r *http.Request, cfg *models.PCConfiguration) bool {
	if cfg.UserID.IsZero() {
		return true
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.UserID == cfg.UserID.Hex() || claims.IsAdmin()
}

// refreshCompatibility resolves the builder specs of every filled slot and
// recomputes the build's compatibility. Components whose product vanished
// are skipped.
func (bc *BuilderController) refreshCompatibility(ctx context.Context, cfg *models.PCConfiguration) error {
	specs := make(map[string]*models.BuilderSpecs, len(cfg.Components))
	for slot, comp := range cfg.Components {
		product, err := bc.Catalog.FindProductByID(ctx, comp.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if product.BuilderSpecs != nil {
			specs[slot] = product.BuilderSpecs
		}
	}
	cfg.Compatibility = cfg.CheckCompatibility(specs)
	return nil
}
