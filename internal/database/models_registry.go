package database

import "echoverse/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.Comment{},
		&models.Like{},
		&models.Message{},
		&models.Friendship{},
	}
}
