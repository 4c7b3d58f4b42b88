package seed

import (
	"context"

	"kenhavate/internal/models"

	"gorm.io/gorm"
)

// DefaultThematicAreas are the categories every installation starts with.
var DefaultThematicAreas = []models.ThematicArea{
	{Name: "Road Safety", Description: "Reducing crashes, injuries and fatalities on national trunk roads."},
	{Name: "Construction Technology", Description: "Materials, methods and equipment that improve road construction."},
	{Name: "Maintenance Efficiency", Description: "Lowering the cost and disruption of routine and periodic maintenance."},
	{Name: "Environmental Sustainability", Description: "Drainage, emissions, recycling and climate resilience of the road network."},
	{Name: "Traffic Management", Description: "Congestion relief, signalling and axle load control."},
	{Name: "Digital Transformation", Description: "Data, automation and digital services for road users and staff."},
	{Name: "Revenue and Cost Reduction", Description: "Ways to raise revenue or reduce spending across the authority."},
}

// EnsureThematicAreas creates any missing default thematic area. Existing
// rows are left as they are.
func EnsureThematicAreas(ctx context.Context, db *gorm.DB) ([]models.ThematicArea, error) {
	areas := make([]models.ThematicArea, 0, len(DefaultThematicAreas))
	for _, def := range DefaultThematicAreas {
		area := models.ThematicArea{}
		err := db.WithContext(ctx).
			Where(models.ThematicArea{Name: def.Name}).
			Attrs(models.ThematicArea{Description: def.Description, Active: true}).
			FirstOrCreate(&area).Error
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, nil
}
