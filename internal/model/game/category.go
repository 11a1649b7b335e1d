package game

// Category selects a scenario theme. Icon is a glyph name owned by the frontend.
type Category struct {
	Key  string `json:"key"`
	Icon string `json:"icon"`
}

// TitleKey is the translation key holding the category's display title.
func (c Category) TitleKey() string {
	return c.Key + "_title"
}

// Store exposes category retrieval for handlers and the session machine.
type Store interface {
	List() []Category
	FindByKey(key string) (Category, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Category
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied categories.
func NewMemoryStore(items []Category) *MemoryStore {
	return &MemoryStore{items: append([]Category(nil), items...)}
}

// List returns the categories in display order.
func (s *MemoryStore) List() []Category {
	return append([]Category(nil), s.items...)
}

// FindByKey looks up a category by key.
func (s *MemoryStore) FindByKey(key string) (Category, bool) {
	for _, item := range s.items {
		if item.Key == key {
			return item, true
		}
	}
	return Category{}, false
}

// Seed provides the built-in emergency scenarios.
func Seed() []Category {
	return []Category{
		{Key: "urbanFire", Icon: "fire"},
		{Key: "floodResponse", Icon: "flood"},
		{Key: "roadAccident", Icon: "car"},
		{Key: "marketplaceStampede", Icon: "people"},
	}
}
