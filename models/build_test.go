package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func buildPart(name string, price float64) *Product {
	return &Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Brand:    "ACME",
		Price:    price,
		IsActive: true,
	}
}

func TestPlatformAllows(t *testing.T) {
	assert.True(t, PlatformAllows(PlatformIntel, PlatformIntel))
	assert.True(t, PlatformAllows(PlatformIntel, PlatformUniversal))
	assert.False(t, PlatformAllows(PlatformIntel, PlatformAMD))
	assert.False(t, ValidPlatform(PlatformUniversal))
	assert.True(t, ValidPlatform(PlatformAMD))
}

func TestBuildPricingAppliesTax(t *testing.T) {
	cfg := NewPCConfiguration("Test build", PlatformIntel)
	cfg.AddComponent(SlotProcessor, buildPart("CPU", 30000), 1)
	cfg.AddComponent(SlotMemory, buildPart("RAM 16GB", 4500), 2)

	assert.Equal(t, float64(39000), cfg.Pricing.Subtotal)
	assert.Equal(t, float64(7020), cfg.Pricing.Tax)
	assert.Equal(t, float64(46020), cfg.Pricing.Total)
	assert.Equal(t, 2, cfg.ComponentCount())
}

func TestBuildPricingRoundsTax(t *testing.T) {
	cfg := NewPCConfiguration("Test build", PlatformAMD)
	cfg.AddComponent(SlotStorage, buildPart("SSD", 1999), 1)

	// 18 percent of 1999 is 359.82, rounded to the nearest rupee.
	assert.Equal(t, float64(360), cfg.Pricing.Tax)
	assert.Equal(t, float64(2359), cfg.Pricing.Total)
}

func TestAddComponentReplacesSlot(t *testing.T) {
	cfg := NewPCConfiguration("Test build", PlatformIntel)
	first := buildPart("GPU A", 40000)
	second := buildPart("GPU B", 60000)

	cfg.AddComponent(SlotGraphicsCard, first, 1)
	cfg.AddComponent(SlotGraphicsCard, second, 1)

	require.Equal(t, 1, cfg.ComponentCount())
	assert.Equal(t, second.ID, cfg.Components[SlotGraphicsCard].ProductID)
	assert.Equal(t, float64(60000), cfg.Pricing.Subtotal)
}

func TestRemoveComponentRecalculates(t *testing.T) {
	cfg := NewPCConfiguration("Test build", PlatformIntel)
	cfg.AddComponent(SlotCase, buildPart("Case", 5000), 1)

	require.True(t, cfg.RemoveComponent(SlotCase))
	assert.Zero(t, cfg.Pricing.Total)
	assert.False(t, cfg.RemoveComponent(SlotCase))
}

func TestCheckCompatibilitySocketMismatch(t *testing.T) {
	cfg := NewPCConfiguration("Test build", PlatformIntel)
	result := cfg.CheckCompatibility(map[string]*BuilderSpecs{
		SlotProcessor:   {Platform: PlatformIntel, Socket: "LGA1700"},
		SlotMotherboard: {Platform: PlatformIntel, Socket: "LGA1200"},
	})

	require.False(t, result.IsValid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CodeSocketMismatch, result.Issues[0].Code)
	assert.Equal(t, SeverityError, result.Issues[0].Severity)
}

func TestCheckCompatibilityMemoryType(t *testing.T) {
	cfg := NewPCConfiguration("Test build", PlatformAMD)
	result := cfg.CheckCompatibility(map[string]*BuilderSpecs{
		SlotMotherboard: {Platform: PlatformAMD, Socket: "AM5", SupportedMemoryTypes: []string{"DDR5"}},
		SlotMemory:      {Platform: PlatformUniversal, MemoryType: "DDR4"},
	})

	require.False(t, result.IsValid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CodeMemoryTypeMismatch, result.Issues[0].Code)
}

func TestCheckCompatibilityPower(t *testing.T) {
	// 125W CPU + 220W GPU + 100W base = 445W estimated draw.
	cpu := &BuilderSpecs{Platform: PlatformIntel, PowerDraw: 125}
	gpu := &BuilderSpecs{Platform: PlatformUniversal, PowerDraw: 220}
	cfg := NewPCConfiguration("Test build", PlatformIntel)

	psu := func(watts int) map[string]*BuilderSpecs {
		return map[string]*BuilderSpecs{
			SlotProcessor:    cpu,
			SlotGraphicsCard: gpu,
			SlotPowerSupply:  {Platform: PlatformUniversal, Wattage: watts},
		}
	}

	result := cfg.CheckCompatibility(psu(400))
	require.Len(t, result.Issues, 1)
	assert.False(t, result.IsValid)
	assert.Equal(t, CodeInsufficientPower, result.Issues[0].Code)

	// Enough to run, but under 20 percent headroom.
	result = cfg.CheckCompatibility(psu(500))
	require.Len(t, result.Issues, 1)
	assert.True(t, result.IsValid)
	assert.Equal(t, CodeLowPowerHeadroom, result.Issues[0].Code)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)

	result = cfg.CheckCompatibility(psu(650))
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Issues)
}

func TestCheckCompatibilityEmptyBuild(t *testing.T) {
	cfg := NewPCConfiguration("Test build", PlatformIntel)
	result := cfg.CheckCompatibility(nil)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Issues)
}
