package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestParamsDSN(t *testing.T) {
	dsn := Params{User: "billing", Pass: "s3cret", Host: "db", Port: "3306", Name: "billing"}.DSN()
	for _, want := range []string{"billing:s3cret@tcp(db:3306)/billing", "parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if !IsDuplicateKey(fmt.Errorf("insert: %w", dup)) {
		t.Fatal("expected wrapped 1062 to be detected")
	}
	if IsDuplicateKey(&mysql.MySQLError{Number: 1146}) {
		t.Fatal("1146 is not a duplicate key error")
	}
	if IsDuplicateKey(errors.New("1062")) {
		t.Fatal("plain errors must not match")
	}
}
