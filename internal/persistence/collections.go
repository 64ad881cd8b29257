package persistence

import (
	"encoding/json"
	"time"

	"luminapos/internal/domain"
)

// EmptyPolicy decides what List returns when the remote collection is empty.
type EmptyPolicy int

const (
	// EmptyReturnsSeed returns the collection seed (or nothing if it has none).
	EmptyReturnsSeed EmptyPolicy = iota
	// EmptyReturnsCache returns whatever the local cache holds for the collection.
	EmptyReturnsCache
)

// Collection configures one id-bearing entity collection.
type Collection[T any] struct {
	Name     string
	CacheKey string
	ID       func(T) string
	Seed     func(now time.Time) []T
	OnEmpty  EmptyPolicy
}

// Singleton configures an entity stored as one fixed document.
type Singleton[T any] struct {
	Collection string
	DocID      string
	CacheKey   string
	// Default is returned when nothing is stored; nil means absence is reported.
	Default func() T
	// InstallDefault writes Default to the remote store when the document is absent.
	InstallDefault bool
}

const settingsCollection = "settings"

var (
	Products = Collection[domain.Product]{
		Name:     "products",
		CacheKey: "products",
		ID:       func(p domain.Product) string { return p.ID },
		Seed:     func(time.Time) []domain.Product { return domain.SeedProducts() },
		OnEmpty:  EmptyReturnsSeed,
	}
	AuthKeys = Collection[domain.AuthKey]{
		Name:     "auth_keys",
		CacheKey: "auth_keys",
		ID:       func(k domain.AuthKey) string { return k.ID },
		Seed:     domain.SeedAuthKeys,
		OnEmpty:  EmptyReturnsSeed,
	}
	Transactions = Collection[domain.Transaction]{
		Name:     "transactions",
		CacheKey: "transactions",
		ID:       func(t domain.Transaction) string { return t.ID },
		OnEmpty:  EmptyReturnsCache,
	}
	Debts = Collection[domain.DebtRecord]{
		Name:     "debts",
		CacheKey: "debts",
		ID:       func(d domain.DebtRecord) string { return d.ID },
		OnEmpty:  EmptyReturnsCache,
	}
	Financials = Collection[domain.FinancialRecord]{
		Name:     "financials",
		CacheKey: "financials",
		ID:       func(r domain.FinancialRecord) string { return r.ID },
		OnEmpty:  EmptyReturnsCache,
	}

	AdminCredentials = Singleton[domain.AdminCredentials]{
		Collection: settingsCollection,
		DocID:      "admin_creds",
		CacheKey:   "admin_creds",
	}
	ShopProfile = Singleton[domain.ShopProfile]{
		Collection:     settingsCollection,
		DocID:          "shop_profile",
		CacheKey:       "shop_profile",
		Default:        domain.SeedShopProfile,
		InstallDefault: true,
	}
)

// binding is the type-erased view of a collection used by the local store.
type binding struct {
	cacheKey string
	seed     func(now time.Time) ([]json.RawMessage, error)
}

func (c Collection[T]) binding() binding {
	b := binding{cacheKey: c.CacheKey}
	if c.Seed != nil {
		b.seed = func(now time.Time) ([]json.RawMessage, error) {
			return encodeAll(c.Seed(now))
		}
	}
	return b
}

type docKey struct{ collection, id string }

// layout maps collection names and singleton documents to cache keys.
type layout struct {
	collections map[string]binding
	singletons  map[docKey]string
}

func defaultLayout() layout {
	l := layout{
		collections: map[string]binding{},
		singletons:  map[docKey]string{},
	}
	addCollection(l, Products)
	addCollection(l, AuthKeys)
	addCollection(l, Transactions)
	addCollection(l, Debts)
	addCollection(l, Financials)
	addSingleton(l, AdminCredentials)
	addSingleton(l, ShopProfile)
	return l
}

func addCollection[T any](l layout, c Collection[T]) {
	l.collections[c.Name] = c.binding()
}

func addSingleton[T any](l layout, s Singleton[T]) {
	l.singletons[docKey{s.Collection, s.DocID}] = s.CacheKey
}

func (l layout) collection(name string) binding {
	if b, ok := l.collections[name]; ok {
		return b
	}
	return binding{cacheKey: name}
}

func encodeAll[T any](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
