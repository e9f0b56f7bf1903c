package serializer

import "github.com/lorepo/lorepo/internal/model"

// Item serializes the render of an item.
func Item(m *model.Item) map[string]any {
	return map[string]any{
		"id":           m.ID,
		"name":         m.Name,
		"deps":         model.ItemNames(m.Deps),
		"required_by":  model.ItemNames(m.RequiredBy),
		"tags":         model.TagNames(m.Tags),
		"image":        m.Image,
		"desc":         m.Description,
		"file":         m.File,
		"service":      m.Service,
		"date_created": m.CreatedAt.UTC(),
		"date_updated": m.UpdatedAt.UTC(),
	}
}

// Items serializes the render of items.
func Items(m []*model.Item) []map[string]any {
	items := make([]map[string]any, len(m))
	for i, item := range m {
		items[i] = Item(item)
	}
	return items
}
