package model

// A Key represents an API credential owning items.
type Key struct {
	Base

	Token  string `gorm:"type:text;not null;uniqueIndex"`
	Active bool   `gorm:"not null;default:true;index"`

	Items []*Item `gorm:"foreignKey:KeyID"`
}

// NewKey returns a new, unsaved, active key for the given token.
func NewKey(token string) *Key {
	return &Key{
		Token:  token,
		Active: true,
	}
}

// Owns returns true if the key is the owner of the given item.
// An unsaved key never owns anything.
func (k *Key) Owns(item *Item) bool {
	if k == nil || k.IsNew() || item.KeyID == nil {
		return false
	}
	return *item.KeyID == k.ID
}
