package migrations

import (
	"context"

	"english-mcq-service/internal/infra/sqlstore/schema"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

type index struct {
	model   interface{}
	name    string
	columns []string
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			tables := []struct {
				model       interface{}
				foreignKeys []string
			}{
				{model: (*schema.User)(nil)},
				{model: (*schema.Question)(nil)},
				{
					model: (*schema.Answer)(nil),
					foreignKeys: []string{
						`("user_id") REFERENCES "users" ("id")`,
						`("question_id") REFERENCES "questions" ("id")`,
					},
				},
				{
					model: (*schema.Wrongdoing)(nil),
					foreignKeys: []string{
						`("user_id") REFERENCES "users" ("id")`,
						`("question_id") REFERENCES "questions" ("id")`,
					},
				},
				{
					model: (*schema.Dashboard)(nil),
					foreignKeys: []string{
						`("user_id") REFERENCES "users" ("id")`,
					},
				},
			}
			for _, t := range tables {
				q := db.NewCreateTable().Model(t.model).IfNotExists()
				for _, fk := range t.foreignKeys {
					q = q.ForeignKey(fk)
				}
				if _, err := q.Exec(ctx); err != nil {
					return err
				}
			}

			indexes := []index{
				{model: (*schema.Answer)(nil), name: "user_answers_user_question_idx", columns: []string{"user_id", "question_id", "answered_at"}},
				{model: (*schema.Wrongdoing)(nil), name: "user_wrongdoing_open_idx", columns: []string{"user_id", "retested_correctly", "last_attempted"}},
				{model: (*schema.Question)(nil), name: "questions_topic_idx", columns: []string{"topic"}},
			}
			for _, idx := range indexes {
				_, err := db.NewCreateIndex().
					Model(idx.model).
					Index(idx.name).
					Column(idx.columns...).
					IfNotExists().
					Exec(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, model := range []interface{}{
				(*schema.Dashboard)(nil),
				(*schema.Wrongdoing)(nil),
				(*schema.Answer)(nil),
				(*schema.Question)(nil),
				(*schema.User)(nil),
			} {
				if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
