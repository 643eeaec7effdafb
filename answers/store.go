// Package answers persists applications, certificate instances and their
// answer sets. Answer rows are keyed by owner (application or certificate
// instance id) plus the (formQuestionId, pageOccurrence) identity. A save
// reads the owner's current set, reconciles the submission against it and
// replaces the rows, all inside one write transaction, so two page
// submissions can never clobber each other's answers.
package answers

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/veritrade/exportcert/model"
)

var ErrNotFound = errors.New("answers: not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateApplication(ctx context.Context, certificateNumber string) (model.Application, error) {
	app := model.Application{
		ID:                uuid.NewString(),
		CertificateNumber: certificateNumber,
		Status:            model.StatusDraft,
		Created:           time.Now().UTC(),
		Answers:           []model.Answer{},
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO application (id, certificate_number, status, created, next_reference)
		VALUES (?, ?, ?, ?, 0)`,
		app.ID, app.CertificateNumber, app.Status, app.Created,
	)
	return app, errors.Wrap(err, "answers: insert application")
}

// ApplicationByID loads the application, its answer set and every
// certificate instance with its own answers.
func (s *Store) ApplicationByID(ctx context.Context, id string) (model.Application, error) {
	app := model.Application{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT certificate_number, status, created
		FROM application
		WHERE id = ?`,
		id,
	).Scan(&app.CertificateNumber, &app.Status, &app.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return app, errors.Wrapf(ErrNotFound, "application %s", id)
	}
	if err != nil {
		return app, errors.Wrap(err, "answers: get application")
	}

	app.Answers, err = s.answersByOwner(ctx, id)
	if err != nil {
		return app, err
	}

	app.Certificates, err = s.certificates(ctx, id)
	return app, err
}

func (s *Store) certificates(ctx context.Context, applicationID string) ([]model.CertificateInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference
		FROM certificate_instance
		WHERE application_id = ?
		ORDER BY reference`,
		applicationID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "answers: get certificates")
	}
	defer rows.Close()

	var certs []model.CertificateInstance
	for rows.Next() {
		c := model.CertificateInstance{ApplicationID: applicationID}
		err = rows.Scan(&c.ID, &c.Reference)
		if err != nil {
			return nil, errors.Wrap(err, "answers: scan certificate")
		}
		certs = append(certs, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i := range certs {
		certs[i].Answers, err = s.answersByOwner(ctx, certs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return certs, nil
}

func (s *Store) CertificateByID(ctx context.Context, applicationID, certificateID string) (model.CertificateInstance, error) {
	cert := model.CertificateInstance{ID: certificateID, ApplicationID: applicationID}
	err := s.db.QueryRowContext(ctx, `
		SELECT reference
		FROM certificate_instance
		WHERE id = ? AND application_id = ?`,
		certificateID, applicationID,
	).Scan(&cert.Reference)
	if errors.Is(err, sql.ErrNoRows) {
		return cert, errors.Wrapf(ErrNotFound, "certificate %s", certificateID)
	}
	if err != nil {
		return cert, errors.Wrap(err, "answers: get certificate")
	}

	cert.Answers, err = s.answersByOwner(ctx, certificateID)
	return cert, err
}

// AddCertificate creates a certificate instance with the next sequential
// reference number. The counter increment is a single UPDATE ... RETURNING
// statement: a read-then-increment done in two steps would need a stronger
// isolation level than the rest of this store.
func (s *Store) AddCertificate(ctx context.Context, applicationID string) (model.CertificateInstance, error) {
	cert := model.CertificateInstance{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		Answers:       []model.Answer{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cert, errors.Wrap(err, "answers: begin tx")
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		UPDATE application
		SET next_reference = next_reference + 1
		WHERE id = ?
		RETURNING next_reference`,
		applicationID,
	).Scan(&cert.Reference)
	if errors.Is(err, sql.ErrNoRows) {
		return cert, errors.Wrapf(ErrNotFound, "application %s", applicationID)
	}
	if err != nil {
		return cert, errors.Wrap(err, "answers: next reference")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO certificate_instance (id, application_id, reference)
		VALUES (?, ?, ?)`,
		cert.ID, cert.ApplicationID, cert.Reference,
	)
	if err != nil {
		return cert, errors.Wrap(err, "answers: insert certificate")
	}

	return cert, errors.Wrap(tx.Commit(), "answers: commit certificate")
}

func (s *Store) answersByOwner(ctx context.Context, ownerID string) ([]model.Answer, error) {
	return ownerAnswers(ctx, s.db, ownerID)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func ownerAnswers(ctx context.Context, q queryer, ownerID string) ([]model.Answer, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT form_question_id, page_number, page_occurrence, question_order, value, scope
		FROM answer
		WHERE owner_id = ?
		ORDER BY page_number, page_occurrence, question_order, form_question_id`,
		ownerID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "answers: get answers")
	}
	defer rows.Close()

	out := []model.Answer{}
	for rows.Next() {
		a := model.Answer{}
		err = rows.Scan(&a.FormQuestionID, &a.PageNumber, &a.PageOccurrence, &a.QuestionOrder, &a.Value, &a.Scope)
		if err != nil {
			return nil, errors.Wrap(err, "answers: scan answer")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReplaceAnswers rewrites the owner's persisted answer set as one
// transaction: it reads the current rows, applies transform to them and
// stores the result, returning the stored set. The transform runs against
// what is on disk at commit time, not against whatever state the caller
// last saw, so merges from overlapping requests compose instead of the
// later one wiping out the earlier.
func (s *Store) ReplaceAnswers(ctx context.Context, ownerID string, transform func(existing []model.Answer) []model.Answer) ([]model.Answer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "answers: begin tx")
	}
	defer tx.Rollback()

	existing, err := ownerAnswers(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}
	set := transform(existing)

	_, err = tx.ExecContext(ctx, `DELETE FROM answer WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "answers: clear answers")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO answer (owner_id, form_question_id, page_number, page_occurrence, question_order, value, scope)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.Wrap(err, "answers: prepare insert")
	}
	defer stmt.Close()

	for _, a := range set {
		_, err = stmt.ExecContext(ctx, ownerID, a.FormQuestionID, a.PageNumber, a.PageOccurrence, a.QuestionOrder, a.Value, a.Scope)
		if err != nil {
			return nil, errors.Wrap(err, "answers: insert answer")
		}
	}

	return set, errors.Wrap(tx.Commit(), "answers: commit answers")
}

func (s *Store) UpdateStatus(ctx context.Context, applicationID string, status model.ApplicationStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE application SET status = ? WHERE id = ?`,
		status, applicationID,
	)
	if err != nil {
		return errors.Wrap(err, "answers: update status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "answers: update status")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "application %s", applicationID)
	}
	return nil
}
