package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		venues, err := app.FindCollectionByNameOrId("venues")
		if err != nil {
			return err
		}

		users.Fields.Add(
			&core.SelectField{Name: "role", Values: []string{"customer", "venue", "admin", "scanner"}, MaxSelect: 1},
			&core.TextField{Name: "phone"},
			&core.RelationField{Name: "venue", CollectionId: venues.Id, MaxSelect: 1},
		)

		return app.Save(users)
	}, func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return nil
		}
		users.Fields.RemoveByName("role")
		users.Fields.RemoveByName("phone")
		users.Fields.RemoveByName("venue")
		return app.Save(users)
	})
}
