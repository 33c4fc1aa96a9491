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
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("refund_requests")
		collection.Fields.Add(
			&core.TextField{Name: "request_id", Required: true},
			&core.TextField{Name: "pass_id", Required: true},
			&core.RelationField{Name: "venue", CollectionId: venues.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "customer", CollectionId: users.Id, MaxSelect: 1},
			&core.EmailField{Name: "email"},
			&core.TextField{Name: "phone"},
			&core.TextField{Name: "reason", Required: true},
			&core.SelectField{Name: "status", Values: []string{"pending", "approved", "denied"}, MaxSelect: 1, Required: true},
			&core.DateField{Name: "responded_at"},
			&core.TextField{Name: "responded_by"},
			&core.TextField{Name: "denial_reason"},
			&core.TextField{Name: "refund_ref"},
			&core.NumberField{Name: "refund_amount", Min: types.Pointer(0.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_refund_requests_request_id", true, "request_id", "")
		collection.AddIndex("idx_refund_requests_venue_status", false, "venue, status", "")
		// At most one open request per pass; resolved requests are kept
		// for audit and do not collide.
		collection.AddIndex("idx_refund_requests_pending_pass", true, "pass_id", "status = 'pending'")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("refund_requests")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
