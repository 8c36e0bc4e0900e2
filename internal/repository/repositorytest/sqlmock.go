// Package repositorytest holds helpers for tests that run the MySQL repository against sqlmock.
package repositorytest

import "github.com/DATA-DOG/go-sqlmock"

// ContactColumns are the columns returned by every contact select.
var ContactColumns = []string{"id", "firstname", "lastname", "email", "phoneno", "company", "jobtitle"}

// ExpectPreparedStatements instructs the mock object to expect that all statements of the MySQL
// repository are being prepared, in the order the repository prepares them.
func ExpectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT (.+) FROM contacts")
	mock.ExpectPrepare("SELECT (.+) FROM contacts WHERE id")
	mock.ExpectPrepare("UPDATE contacts")
	mock.ExpectPrepare("DELETE FROM contacts")
}
