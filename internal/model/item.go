package model

const (
	// DefaultService is the service label used when none is provided.
	DefaultService = "NAI"

	// ItemTagsTable is the item <-> tag association table.
	ItemTagsTable = "item_tags"
	// ItemDependenciesTable is the directed item -> dependency edge table.
	ItemDependenciesTable = "item_dependencies"
)

// An Item represents a catalog entry.
//
// Deps and RequiredBy are both read from the item_dependencies edge table:
// Deps follows item_id -> dependency_id and RequiredBy the opposite direction.
type Item struct {
	Base

	Name        string  `gorm:"type:text;not null;uniqueIndex"`
	Image       *string `gorm:"type:text"`
	Description string  `gorm:"type:text;not null"`
	File        string  `gorm:"type:text;not null"`
	Service     string  `gorm:"type:text;not null;default:NAI"`

	KeyID *uint `gorm:"index"`
	Key   *Key

	Tags       []*Tag  `gorm:"many2many:item_tags"`
	Deps       []*Item `gorm:"many2many:item_dependencies;joinForeignKey:ItemID;joinReferences:DependencyID"`
	RequiredBy []*Item `gorm:"many2many:item_dependencies;joinForeignKey:DependencyID;joinReferences:ItemID"`
}

// NewItem returns a new item with default params.
func NewItem() *Item {
	return &Item{
		Service: DefaultService,
	}
}

// ItemNames returns the names of the given items.
func ItemNames(items []*Item) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}
