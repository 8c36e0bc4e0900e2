package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

// MySQLConfig is the set of properties required to reach the relational store.
type MySQLConfig struct {
	User     string
	Password string
	Host     string
	Name     string
}

// contactRow is the stored shape of a contact in the contacts table.
type contactRow struct {
	ID        int64  `db:"id"`
	FirstName string `db:"firstname"`
	LastName  string `db:"lastname"`
	Email     string `db:"email"`
	PhoneNo   string `db:"phoneno"`
	Company   string `db:"company"`
	JobTitle  string `db:"jobtitle"`
}

func newContactRow(id int64, d model.Draft) contactRow {
	return contactRow{
		ID:        id,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		PhoneNo:   d.PhoneNo,
		Company:   d.Company,
		JobTitle:  d.JobTitle,
	}
}

func (r contactRow) contact() model.Contact {
	return model.Contact{
		ID: strconv.FormatInt(r.ID, 10),
		Draft: model.Draft{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			PhoneNo:   r.PhoneNo,
			Company:   r.Company,
			JobTitle:  r.JobTitle,
		},
	}
}

// MySQL stores contacts in the contacts table of a MySQL database. All statements are prepared
// once when the repository is created.
type MySQL struct {
	db *sqlx.DB

	// insert creates a contact.
	insert *sqlx.NamedStmt
	// selectAll selects every contact.
	selectAll *sqlx.Stmt
	// selectWhereID selects the contact with a given id.
	selectWhereID *sqlx.Stmt
	// updateWhereID replaces all fields of the contact with a given id.
	updateWhereID *sqlx.NamedStmt
	// deleteWhereID deletes the contact with a given id.
	deleteWhereID *sqlx.Stmt
}

// OpenMySQL returns a database handle for the configured server. Affected row counts report
// matched rows, so an update that does not change any value still counts as found.
func OpenMySQL(cfg MySQLConfig) (*sqlx.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = cfg.Host
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	dsn.ClientFoundRows = true
	return sqlx.Open("mysql", dsn.FormatDSN())
}

// NewMySQL prepares all statements against the given database. The database can be a real
// database for production use or a mock database within unit tests.
func NewMySQL(db *sqlx.DB) (*MySQL, error) {
	var err error
	r := &MySQL{db: db}

	r.insert, err = db.PrepareNamed(`INSERT INTO contacts (firstname, lastname, email, phoneno, company, jobtitle) VALUES (:firstname, :lastname, :email, :phoneno, :company, :jobtitle)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	r.selectAll, err = db.Preparex(`SELECT id, firstname, lastname, email, phoneno, company, jobtitle FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("preparing select: %w", err)
	}
	r.selectWhereID, err = db.Preparex(`SELECT id, firstname, lastname, email, phoneno, company, jobtitle FROM contacts WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("preparing select by id: %w", err)
	}
	r.updateWhereID, err = db.PrepareNamed(`UPDATE contacts SET firstname = :firstname, lastname = :lastname, email = :email, phoneno = :phoneno, company = :company, jobtitle = :jobtitle WHERE id = :id`)
	if err != nil {
		return nil, fmt.Errorf("preparing update: %w", err)
	}
	r.deleteWhereID, err = db.Preparex(`DELETE FROM contacts WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("preparing delete: %w", err)
	}
	return r, nil
}

// Close releases the prepared statements.
func (r *MySQL) Close() error {
	return errors.Join(
		r.insert.Close(),
		r.selectAll.Close(),
		r.selectWhereID.Close(),
		r.updateWhereID.Close(),
		r.deleteWhereID.Close(),
	)
}

// ListAll returns every stored contact.
func (r *MySQL) ListAll(ctx context.Context) ([]model.Contact, error) {
	var rows []contactRow
	if err := r.selectAll.SelectContext(ctx, &rows); err != nil {
		return nil, translateSQL(err)
	}
	contacts := make([]model.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.contact())
	}
	return contacts, nil
}

// Get returns the contact whose id matches. Non numeric ids are never found.
func (r *MySQL) Get(ctx context.Context, id string) (model.Contact, error) {
	numericID, err := parseID(id)
	if err != nil {
		return model.Contact{}, err
	}
	var row contactRow
	if err := r.selectWhereID.GetContext(ctx, &row, numericID); err != nil {
		return model.Contact{}, translateSQL(err)
	}
	return row.contact(), nil
}

// Create inserts the draft as a new row and returns it with the generated id.
func (r *MySQL) Create(ctx context.Context, draft model.Draft) (model.Contact, error) {
	if err := checkDraft(draft); err != nil {
		return model.Contact{}, err
	}
	result, err := r.insert.ExecContext(ctx, newContactRow(0, draft))
	if err != nil {
		return model.Contact{}, translateSQL(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, translateSQL(err)
	}
	return newContactRow(id, draft).contact(), nil
}

// Update replaces all fields of the row whose id matches and returns the row as stored.
func (r *MySQL) Update(ctx context.Context, id string, patch model.Draft) (model.Contact, error) {
	if err := checkDraft(patch); err != nil {
		return model.Contact{}, err
	}
	numericID, err := parseID(id)
	if err != nil {
		return model.Contact{}, err
	}
	result, err := r.updateWhereID.ExecContext(ctx, newContactRow(numericID, patch))
	if err != nil {
		return model.Contact{}, translateSQL(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.Contact{}, translateSQL(err)
	}
	if rowsAffected == 0 {
		return model.Contact{}, ErrNotFound
	}

	// Return the full contact after the update.
	var row contactRow
	if err := r.selectWhereID.GetContext(ctx, &row, numericID); err != nil {
		return model.Contact{}, translateSQL(err)
	}
	return row.contact(), nil
}

// Delete removes the row whose id matches.
func (r *MySQL) Delete(ctx context.Context, id string) error {
	numericID, err := parseID(id)
	if err != nil {
		return err
	}
	result, err := r.deleteWhereID.ExecContext(ctx, numericID)
	if err != nil {
		return translateSQL(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return translateSQL(err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the database can be reached.
func (r *MySQL) Ping(ctx context.Context) error {
	return translateSQL(r.db.PingContext(ctx))
}

// parseID converts a contact id into the numeric primary key.
func parseID(id string) (int64, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || numericID < 1 {
		return 0, ErrNotFound
	}
	return numericID, nil
}

// translateSQL maps database errors to the domain errors of this package.
func translateSQL(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return err
}
