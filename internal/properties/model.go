package properties

import "time"

// Property is one listing owned by an owner.
type Property struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	OwnerID   string    `gorm:"index;not null" json:"owner_id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Property) TableName() string {
	return "properties"
}
