package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("settings")
		collection.Fields.Add(
			&core.TextField{Name: "key", Required: true},
			&core.NumberField{Name: "promotional_discount_percent", OnlyInt: true, Min: types.Pointer(0.0), Max: types.Pointer(100.0)},
			&core.TextField{Name: "updated_by"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_settings_key", true, "key", "")

		if err := app.Save(collection); err != nil {
			return err
		}

		// Seed the singleton row the pricing path reads.
		record := core.NewRecord(collection)
		record.Set("key", "system")
		record.Set("promotional_discount_percent", 0)
		return app.Save(record)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("settings")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
