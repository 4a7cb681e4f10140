package postgres

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{name: "missing database is created", exists: false},
		{name: "existing database is kept", exists: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1);")).
				WithArgs("coinlizard").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			if !tt.exists {
				mock.ExpectExec(regexp.QuoteMeta(`CREATE DATABASE "coinlizard"`)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			}

			if err := createDatabase(db, "coinlizard"); err != nil {
				t.Fatalf("createDatabase: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

// go test -v --run TestCreateDatabaseQueryError
func TestCreateDatabaseQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("permission denied"))

	if err := createDatabase(db, "coinlizard"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
