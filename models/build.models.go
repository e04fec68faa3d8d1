package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platforms a build can target. Components tagged universal fit either.
const (
	PlatformIntel     = "intel"
	PlatformAMD       = "amd"
	PlatformUniversal = "universal"
)

// ValidPlatform reports whether p names a platform a build can target.
func ValidPlatform(p string) bool {
	return p == PlatformIntel || p == PlatformAMD
}

// PlatformAllows reports whether a component tagged with componentPlatform
// can go into a build targeting platform.
func PlatformAllows(platform, componentPlatform string) bool {
	return componentPlatform == PlatformUniversal || componentPlatform == platform
}

// Component slots of a build. A slot holds at most one component; quantity
// covers multiples of the same part.
const (
	SlotProcessor    = "processor"
	SlotMotherboard  = "motherboard"
	SlotMemory       = "memory"
	SlotGraphicsCard = "graphicsCard"
	SlotStorage      = "storage"
	SlotPowerSupply  = "powerSupply"
	SlotCase         = "pcCase"
	SlotCooling      = "cooling"
)

var buildSlots = map[string]bool{
	SlotProcessor:    true,
	SlotMotherboard:  true,
	SlotMemory:       true,
	SlotGraphicsCard: true,
	SlotStorage:      true,
	SlotPowerSupply:  true,
	SlotCase:         true,
	SlotCooling:      true,
}

// ValidSlot reports whether slot names a component slot.
func ValidSlot(slot string) bool {
	return buildSlots[slot]
}

// Build status values.
const (
	BuildStatusDraft     = "draft"
	BuildStatusCompleted = "completed"
	BuildStatusOrdered   = "ordered"
	BuildStatusSaved     = "saved"
)

// Use cases a build can be tuned for.
const (
	UseCaseGaming      = "gaming"
	UseCaseWorkstation = "workstation"
	UseCaseOffice      = "office"
	UseCaseGeneral     = "general"
)

// BuildComponent is a product pinned into a slot. The name, brand, price and
// image are frozen at selection time; pricing always uses the frozen price.
type BuildComponent struct {
	ProductID  primitive.ObjectID `bson:"product_id" json:"productId"`
	Name       string             `bson:"name" json:"name"`
	Brand      string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Price      float64            `bson:"price" json:"price"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	SelectedAt time.Time          `bson:"selected_at" json:"selectedAt"`
}

// BuildBudget bounds the spend of a build. Zero values mean unbounded.
type BuildBudget struct {
	Min    float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max    float64 `bson:"max,omitempty" json:"max,omitempty"`
	Target float64 `bson:"target,omitempty" json:"target,omitempty"`
}

// buildTaxRate is the GST applied to the component subtotal.
const buildTaxRate = 0.18

// BuildPricing is recomputed on every component change.
type BuildPricing struct {
	Subtotal    float64   `bson:"subtotal" json:"subtotal"`
	Tax         float64   `bson:"tax" json:"tax"`
	Shipping    float64   `bson:"shipping" json:"shipping"`
	Discount    float64   `bson:"discount" json:"discount"`
	Total       float64   `bson:"total" json:"total"`
	LastUpdated time.Time `bson:"last_updated" json:"lastUpdated"`
}

// Compatibility issue severities and codes.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"

	CodeSocketMismatch     = "SOCKET_MISMATCH"
	CodeMemoryTypeMismatch = "MEMORY_TYPE_MISMATCH"
	CodeInsufficientPower  = "INSUFFICIENT_POWER"
	CodeLowPowerHeadroom   = "LOW_POWER_HEADROOM"
)

// CompatibilityIssue flags a conflict between two selected components.
type CompatibilityIssue struct {
	Severity   string `bson:"severity" json:"severity"`
	Component1 string `bson:"component1" json:"component1"`
	Component2 string `bson:"component2" json:"component2"`
	Code       string `bson:"code" json:"code"`
	Message    string `bson:"message" json:"message"`
}

// BuildCompatibility is the outcome of the last compatibility check. Only
// error-severity issues make a build invalid.
type BuildCompatibility struct {
	IsValid     bool                 `bson:"is_valid" json:"isValid"`
	Issues      []CompatibilityIssue `bson:"issues" json:"issues"`
	LastChecked time.Time            `bson:"last_checked" json:"lastChecked"`
}

// PCConfiguration is a PC build a shopper assembles component by component.
// Either UserID or SessionID owns it; anonymous builds carry only a session.
type PCConfiguration struct {
	ID            primitive.ObjectID        `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID        `bson:"user_id,omitempty" json:"userId,omitempty"`
	SessionID     string                    `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	Name          string                    `bson:"name" json:"name"`
	Platform      string                    `bson:"platform" json:"platform"`
	UseCase       string                    `bson:"use_case" json:"useCase"`
	Budget        BuildBudget               `bson:"budget,omitempty" json:"budget"`
	Components    map[string]BuildComponent `bson:"components" json:"components"`
	Pricing       BuildPricing              `bson:"pricing" json:"pricing"`
	Compatibility BuildCompatibility        `bson:"compatibility" json:"compatibility"`
	Status        string                    `bson:"status" json:"status"`
	IsPublic      bool                      `bson:"is_public" json:"isPublic"`
	Tags          []string                  `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt     time.Time                 `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time                 `bson:"updated_at" json:"updatedAt"`
}

// NewPCConfiguration returns an empty draft build for the given platform.
func NewPCConfiguration(name, platform string) *PCConfiguration {
	now := time.Now()
	return &PCConfiguration{
		Name:       name,
		Platform:   platform,
		UseCase:    UseCaseGeneral,
		Components: map[string]BuildComponent{},
		Status:     BuildStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddComponent pins a product into a slot, replacing whatever was there,
// and recomputes pricing.
func (c *PCConfiguration) AddComponent(slot string, p *Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	if c.Components == nil {
		c.Components = map[string]BuildComponent{}
	}
	c.Components[slot] = BuildComponent{
		ProductID:  p.ID,
		Name:       p.Name,
		Brand:      p.Brand,
		Price:      p.Price,
		Image:      image,
		Quantity:   quantity,
		SelectedAt: time.Now(),
	}
	c.UpdatePricing()
}

// RemoveComponent empties a slot and recomputes pricing. It reports whether
// the slot held a component.
func (c *PCConfiguration) RemoveComponent(slot string) bool {
	if _, ok := c.Components[slot]; !ok {
		return false
	}
	delete(c.Components, slot)
	c.UpdatePricing()
	return true
}

// ComponentCount returns the number of filled slots.
func (c *PCConfiguration) ComponentCount() int {
	return len(c.Components)
}

// UpdatePricing recomputes the subtotal, tax and total from the frozen
// component prices.
func (c *PCConfiguration) UpdatePricing() {
	subtotal := 0.0
	for _, comp := range c.Components {
		subtotal += comp.Price * float64(comp.Quantity)
	}
	c.Pricing.Subtotal = subtotal
	c.Pricing.Tax = math.Round(subtotal * buildTaxRate)
	c.Pricing.Total = subtotal + c.Pricing.Tax + c.Pricing.Shipping - c.Pricing.Discount
	c.Pricing.LastUpdated = time.Now()
	c.UpdatedAt = time.Now()
}

// powerBaseWatts covers the board, drives, fans and everything else that
// draws power without a declared TDP.
const powerBaseWatts = 100

// CheckCompatibility evaluates the build against the resolved builder specs
// of each filled slot, keyed by slot name. Slots whose specs are missing are
// skipped.
func (c *PCConfiguration) CheckCompatibility(specs map[string]*BuilderSpecs) BuildCompatibility {
	result := BuildCompatibility{IsValid: true, Issues: []CompatibilityIssue{}, LastChecked: time.Now()}

	cpu := specs[SlotProcessor]
	board := specs[SlotMotherboard]
	mem := specs[SlotMemory]
	gpu := specs[SlotGraphicsCard]
	psu := specs[SlotPowerSupply]

	if cpu != nil && board != nil && cpu.Socket != "" && board.Socket != "" && cpu.Socket != board.Socket {
		result.Issues = append(result.Issues, CompatibilityIssue{
			Severity:   SeverityError,
			Component1: SlotProcessor,
			Component2: SlotMotherboard,
			Code:       CodeSocketMismatch,
			Message:    "Processor socket " + cpu.Socket + " does not fit motherboard socket " + board.Socket,
		})
	}

	if mem != nil && board != nil && mem.MemoryType != "" && len(board.SupportedMemoryTypes) > 0 {
		supported := false
		for _, t := range board.SupportedMemoryTypes {
			if t == mem.MemoryType {
				supported = true
				break
			}
		}
		if !supported {
			result.Issues = append(result.Issues, CompatibilityIssue{
				Severity:   SeverityError,
				Component1: SlotMemory,
				Component2: SlotMotherboard,
				Code:       CodeMemoryTypeMismatch,
				Message:    "Motherboard does not support " + mem.MemoryType + " memory",
			})
		}
	}

	if psu != nil && psu.Wattage > 0 {
		required := powerBaseWatts
		if cpu != nil {
			required += cpu.PowerDraw
		}
		if gpu != nil {
			required += gpu.PowerDraw
		}
		if psu.Wattage < required {
			result.Issues = append(result.Issues, CompatibilityIssue{
				Severity:   SeverityError,
				Component1: SlotPowerSupply,
				Component2: SlotGraphicsCard,
				Code:       CodeInsufficientPower,
				Message:    "Power supply cannot cover the estimated draw of the build",
			})
		} else if float64(psu.Wattage) < float64(required)*1.2 {
			result.Issues = append(result.Issues, CompatibilityIssue{
				Severity:   SeverityWarning,
				Component1: SlotPowerSupply,
				Component2: SlotGraphicsCard,
				Code:       CodeLowPowerHeadroom,
				Message:    "Power supply leaves little headroom over the estimated draw",
			})
		}
	}

	for _, issue := range result.Issues {
		if issue.Severity == SeverityError {
			result.IsValid = false
			break
		}
	}
	return result
}
