// Package catalog is the sqlite-backed form catalog: published form
// definitions and health certificate records. Definitions are insert-only;
// a published (name, version) pair never changes.
package catalog

import (
	"context"
	"database/sql"
	"sort"

	"github.com/pkg/errors"
	"github.com/veritrade/exportcert/model"
)

var ErrNotFound = errors.New("catalog: not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// FormByNameVersion loads one fully hydrated form definition.
func (s *Store) FormByNameVersion(ctx context.Context, name, version string) (model.FormDefinition, error) {
	form := model.FormDefinition{Name: name, Version: version}

	err := s.db.QueryRowContext(ctx, `
		SELECT title FROM form
		WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&form.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return form, errors.Wrapf(ErrNotFound, "form %s/%s", name, version)
	}
	if err != nil {
		return form, errors.Wrap(err, "catalog: get form")
	}

	pageByRowID, err := s.formPages(ctx, name, version)
	if err != nil {
		return form, err
	}

	err = s.attachQuestions(ctx, name, version, pageByRowID)
	if err != nil {
		return form, err
	}

	pages := make([]model.PageDefinition, 0, len(pageByRowID))
	for _, rowID := range sortedKeys(pageByRowID) {
		pages = append(pages, *pageByRowID[rowID])
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageOrder < pages[j].PageOrder
	})
	form.Pages = pages
	return form, nil
}

func (s *Store) formPages(ctx context.Context, name, version string) (map[int64]*model.PageDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, page_order, title
		FROM form_page
		WHERE form_name = ? AND form_version = ?`,
		name, version,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: get pages")
	}
	defer rows.Close()

	byRowID := make(map[int64]*model.PageDefinition)
	for rows.Next() {
		var rowID int64
		p := model.PageDefinition{}
		err = rows.Scan(&rowID, &p.PageID, &p.PageOrder, &p.Title)
		if err != nil {
			return nil, errors.Wrap(err, "catalog: scan page")
		}
		byRowID[rowID] = &p
	}
	return byRowID, rows.Err()
}

// questionRow pairs one question definition with the surrogate row id its
// constraints, options and template fields hang off. The global question id
// may recur across form versions; the row id never does.
type questionRow struct {
	rowID     int64
	pageRowID int64
	def       model.QuestionDefinition
}

func (s *Store) attachQuestions(ctx context.Context, name, version string, pages map[int64]*model.PageDefinition) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.question_id, q.page_rowid, q.type, q.text, q.scope, q.repeat_per_certificate
		FROM form_question q
		JOIN form_page p ON (q.page_rowid = p.id)
		WHERE p.form_name = ? AND p.form_version = ?
		ORDER BY q.page_rowid, q.question_order`,
		name, version,
	)
	if err != nil {
		return errors.Wrap(err, "catalog: get questions")
	}
	defer rows.Close()

	var questions []questionRow
	for rows.Next() {
		qr := questionRow{}
		err = rows.Scan(&qr.rowID, &qr.def.ID, &qr.pageRowID, &qr.def.Type, &qr.def.Text, &qr.def.Scope, &qr.def.RepeatPerCertificate)
		if err != nil {
			return errors.Wrap(err, "catalog: scan question")
		}
		questions = append(questions, qr)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	constraints, err := s.questionConstraints(ctx, name, version)
	if err != nil {
		return err
	}
	options, err := s.questionOptions(ctx, name, version)
	if err != nil {
		return err
	}
	fields, err := s.questionTemplateFields(ctx, name, version)
	if err != nil {
		return err
	}

	for _, qr := range questions {
		page, ok := pages[qr.pageRowID]
		if !ok {
			continue
		}
		qr.def.Constraints = constraints[qr.rowID]
		qr.def.Options = options[qr.rowID]
		qr.def.TemplateFields = fields[qr.rowID]
		page.Questions = append(page.Questions, qr.def)
	}
	return nil
}

func (s *Store) questionConstraints(ctx context.Context, name, version string) (map[int64][]model.Constraint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.question_rowid, c.type, c.message, c.value
		FROM question_constraint c
		JOIN form_question q ON (c.question_rowid = q.id)
		JOIN form_page p ON (q.page_rowid = p.id)
		WHERE p.form_name = ? AND p.form_version = ?
		ORDER BY c.question_rowid, c.ord`,
		name, version,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: get constraints")
	}
	defer rows.Close()

	out := make(map[int64][]model.Constraint)
	for rows.Next() {
		var rowID int64
		c := model.Constraint{}
		err = rows.Scan(&rowID, &c.Type, &c.Message, &c.Value)
		if err != nil {
			return nil, errors.Wrap(err, "catalog: scan constraint")
		}
		out[rowID] = append(out[rowID], c)
	}
	return out, rows.Err()
}

func (s *Store) questionOptions(ctx context.Context, name, version string) (map[int64][]model.Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.question_rowid, o.value, o.label, o.template_field
		FROM question_option o
		JOIN form_question q ON (o.question_rowid = q.id)
		JOIN form_page p ON (q.page_rowid = p.id)
		WHERE p.form_name = ? AND p.form_version = ?
		ORDER BY o.question_rowid, o.ord`,
		name, version,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: get options")
	}
	defer rows.Close()

	out := make(map[int64][]model.Option)
	for rows.Next() {
		var rowID int64
		o := model.Option{}
		err = rows.Scan(&rowID, &o.Value, &o.Label, &o.TemplateField)
		if err != nil {
			return nil, errors.Wrap(err, "catalog: scan option")
		}
		out[rowID] = append(out[rowID], o)
	}
	return out, rows.Err()
}

func (s *Store) questionTemplateFields(ctx context.Context, name, version string) (map[int64][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.question_rowid, f.field
		FROM question_template_field f
		JOIN form_question q ON (f.question_rowid = q.id)
		JOIN form_page p ON (q.page_rowid = p.id)
		WHERE p.form_name = ? AND p.form_version = ?
		ORDER BY f.question_rowid, f.ord`,
		name, version,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: get template fields")
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var rowID int64
		var field string
		err = rows.Scan(&rowID, &field)
		if err != nil {
			return nil, errors.Wrap(err, "catalog: scan template field")
		}
		out[rowID] = append(out[rowID], field)
	}
	return out, rows.Err()
}

func sortedKeys(pages map[int64]*model.PageDefinition) []int64 {
	keys := make([]int64, 0, len(pages))
	for k := range pages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
