package catalog

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/veritrade/exportcert/model"
)

// FormRef is one published (name, version) entry in the catalog listing.
type FormRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Title   string `json:"title"`
}

func (s *Store) ListForms(ctx context.Context) ([]FormRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, version, title FROM form
		ORDER BY name, version`)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: list forms")
	}
	defer rows.Close()

	refs := []FormRef{}
	for rows.Next() {
		ref := FormRef{}
		err = rows.Scan(&ref.Name, &ref.Version, &ref.Title)
		if err != nil {
			return nil, errors.Wrap(err, "catalog: scan form ref")
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// SaveForm publishes one form definition. Versions are insert-only: a
// (name, version) collision is an error, never an update.
func (s *Store) SaveForm(ctx context.Context, form model.FormDefinition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "catalog: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO form (name, version, title) VALUES (?, ?, ?)`,
		form.Name, form.Version, form.Title,
	)
	if err != nil {
		return errors.Wrap(err, "catalog: insert form")
	}

	for _, page := range form.Pages {
		var pageRowID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO form_page (form_name, form_version, page_id, page_order, title)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			form.Name, form.Version, page.PageID, page.PageOrder, page.Title,
		).Scan(&pageRowID)
		if err != nil {
			return errors.Wrap(err, "catalog: insert page")
		}

		for order, q := range page.Questions {
			err = s.insertQuestion(ctx, tx, pageRowID, order+1, q)
			if err != nil {
				return err
			}
		}
	}

	return errors.Wrap(tx.Commit(), "catalog: commit form")
}

func (s *Store) insertQuestion(ctx context.Context, tx *sql.Tx, pageRowID int64, order int, q model.QuestionDefinition) error {
	var questionRowID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO form_question (question_id, page_rowid, question_order, type, text, scope, repeat_per_certificate)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		q.ID, pageRowID, order, q.Type, q.Text, q.Scope, q.RepeatPerCertificate,
	).Scan(&questionRowID)
	if err != nil {
		return errors.Wrap(err, "catalog: insert question")
	}

	for ord, c := range q.Constraints {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO question_constraint (question_rowid, ord, type, message, value)
			VALUES (?, ?, ?, ?, ?)`,
			questionRowID, ord+1, c.Type, c.Message, c.Value,
		)
		if err != nil {
			return errors.Wrap(err, "catalog: insert constraint")
		}
	}
	for ord, o := range q.Options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO question_option (question_rowid, ord, value, label, template_field)
			VALUES (?, ?, ?, ?, ?)`,
			questionRowID, ord+1, o.Value, o.Label, o.TemplateField,
		)
		if err != nil {
			return errors.Wrap(err, "catalog: insert option")
		}
	}
	for ord, field := range q.TemplateFields {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO question_template_field (question_rowid, ord, field)
			VALUES (?, ?, ?)`,
			questionRowID, ord+1, field,
		)
		if err != nil {
			return errors.Wrap(err, "catalog: insert template field")
		}
	}
	return nil
}

func (s *Store) HealthCertificateByNumber(ctx context.Context, number string) (model.HealthCertificate, error) {
	hc := model.HealthCertificate{Number: number}
	err := s.db.QueryRowContext(ctx, `
		SELECT title, multiple, max_certificates, form_name, form_version
		FROM health_certificate
		WHERE number = ?`,
		number,
	).Scan(&hc.Title, &hc.Multiple, &hc.MaxCertificates, &hc.FormName, &hc.FormVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return hc, errors.Wrapf(ErrNotFound, "health certificate %s", number)
	}
	if err != nil {
		return hc, errors.Wrap(err, "catalog: get health certificate")
	}
	return hc, nil
}

// SaveHealthCertificate upserts one certificate kind record.
func (s *Store) SaveHealthCertificate(ctx context.Context, hc model.HealthCertificate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_certificate (number, title, multiple, max_certificates, form_name, form_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (number) DO UPDATE SET
			title = excluded.title,
			multiple = excluded.multiple,
			max_certificates = excluded.max_certificates,
			form_name = excluded.form_name,
			form_version = excluded.form_version`,
		hc.Number, hc.Title, hc.Multiple, hc.MaxCertificates, hc.FormName, hc.FormVersion,
	)
	return errors.Wrap(err, "catalog: save health certificate")
}
