package domain

import (
	"fmt"
	"time"
)

// DemoKey is the license key installed on a fresh store.
const DemoKey = "KSR-DEMO-2025-KEYS"

// SeedProducts returns the demo menu used when no products are stored anywhere.
func SeedProducts() []Product {
	items := []struct {
		name     string
		price    float64
		category string
		stock    int
	}{
		{"Cosmic Latte", 45000, "Coffee", 100},
		{"Nebula Matcha", 48000, "Tea", 85},
		{"Quantum Croissant", 35000, "Food", 20},
		{"Void Brew (Cold)", 42000, "Coffee", 150},
		{"Solar Tea", 30000, "Tea", 50},
		{"Asteroid Cake", 55000, "Food", 12},
	}
	out := make([]Product, 0, len(items))
	for i, it := range items {
		n := i + 1
		out = append(out, Product{
			ID:       fmt.Sprint(n),
			Name:     it.name,
			Price:    it.price,
			Category: it.category,
			Stock:    it.stock,
			Image:    fmt.Sprintf("https://picsum.photos/200/200?random=%d", n),
		})
	}
	return out
}

// SeedAuthKeys returns the demo license, valid for one year from now.
func SeedAuthKeys(now time.Time) []AuthKey {
	k := NewAuthKey("admin-seed", DemoKey, DurationYearly, 0, now)
	k.UsageCount = 5
	return []AuthKey{k}
}

// SeedShopProfile returns the profile installed on first use.
func SeedShopProfile() ShopProfile {
	return ShopProfile{
		Name:          "Lumina Coffee Space",
		Address:       "Jl. Digital No. 2025, Cyber City",
		Phone:         "0812-3456-7890",
		FooterMessage: "Thank you for visiting the future!",
	}
}
