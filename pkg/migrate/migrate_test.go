package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriverURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", DriverURL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://h/db", DriverURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", DriverURL("pgx5://h/db"))
}
