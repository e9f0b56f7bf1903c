package model

// A Tag is a free-text label shared by items.
type Tag struct {
	Base

	Name string `gorm:"type:text;not null;uniqueIndex"`

	Items []*Item `gorm:"many2many:item_tags"`
}

// TagNames returns the names of the given tags.
func TagNames(tags []*Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
