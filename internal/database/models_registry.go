package database

import "kenhavate/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.ThematicArea{},
		&models.Idea{},
		&models.IdeaCollaborator{},
		&models.CollaborationRequest{},
		&models.IdeaRevision{},
		&models.Comment{},
	}
}
