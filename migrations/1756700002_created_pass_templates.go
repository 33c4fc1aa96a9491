package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		venues, err := app.FindCollectionByNameOrId("venues")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("pass_templates")
		collection.Fields.Add(
			&core.RelationField{Name: "venue", CollectionId: venues.Id, MaxSelect: 1, Required: true},
			&core.TextField{Name: "venue_name"},
			&core.TextField{Name: "name", Required: true},
			&core.TextField{Name: "description"},
			&core.NumberField{Name: "price", Required: true, Min: types.Pointer(10.0), Max: types.Pointer(500.0)},
			&core.TextField{Name: "tagline"},
			&core.JSONField{Name: "features", MaxSize: 5000},
			&core.BoolField{Name: "is_active"},
			&core.NumberField{Name: "max_per_purchase", OnlyInt: true, Min: types.Pointer(1.0), Max: types.Pointer(10.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_pass_templates_venue", false, "venue", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pass_templates")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
