package migrations

import (
	"github.com/pocketbase/pocketbase/core"
)

// Collection and field names mirror internal/repository/pocketbase_rest.go
const (
	attendanceCollection = "attendance"
	reasonCollection     = "lateReasons"
	recordKeyField       = "record_key"
	clockPattern         = `^$|^([01]?[0-9]|2[0-3]):[0-5][0-9]$`
)

func init() {
	core.AppMigrations.Register(func(app core.App) error {
		attendance := core.NewBaseCollection(attendanceCollection)
		attendance.Fields.Add(
			&core.TextField{Name: recordKeyField, Required: true, Max: 300},
			&core.TextField{Name: "employee_name", Required: true, Max: 255},
			&core.TextField{Name: "department", Max: 255},
			&core.TextField{Name: "date", Max: 10},
			&core.TextField{Name: "s1", Max: 5, Pattern: clockPattern},
			&core.TextField{Name: "s2", Max: 5, Pattern: clockPattern},
			&core.TextField{Name: "c1", Max: 5, Pattern: clockPattern},
			&core.TextField{Name: "c2", Max: 5, Pattern: clockPattern},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		attendance.AddIndex("idx_attendance_record_key", true, recordKeyField, "")
		attendance.AddIndex("idx_attendance_department", false, "department", "")
		if err := app.Save(attendance); err != nil {
			return err
		}

		reasons := core.NewBaseCollection(reasonCollection)
		reasons.Fields.Add(
			&core.TextField{Name: recordKeyField, Required: true, Max: 300},
			&core.TextField{Name: "morning", Max: 500},
			&core.TextField{Name: "afternoon", Max: 500},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		reasons.AddIndex("idx_late_reasons_record_key", true, recordKeyField, "")
		return app.Save(reasons)
	}, func(app core.App) error {
		for _, name := range []string{reasonCollection, attendanceCollection} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				continue
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
