package domain

import "time"

type User struct {
	ID        string    `bson:"_id" json:"id"`
	LegacyID  int64     `bson:"legacy_id" json:"legacy_id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone" json:"phone"`
	Address   string    `bson:"address" json:"address"`
	Favorites []int64   `bson:"favorites" json:"favorites"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ProfileUpdate carries the user-mutable profile fields. Email and
// created_at are not part of it.
type ProfileUpdate struct {
	Name    string
	Phone   string
	Address string
}
