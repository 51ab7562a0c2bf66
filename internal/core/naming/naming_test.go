package naming_test

import (
	"testing"

	"github.com/satishbabariya/ormkit/internal/core/naming"
	"github.com/stretchr/testify/assert"
)

func TestToDatabase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"title", "title"},
		{"createdAt", "created_at"},
		{"flightDuration", "flight_duration"},
		{"*", "*"},
		{"?", "?"},
		{"$1", "$1"},
		{"_id", "_id"},
		{"articles.createdAt", "articles.created_at"},
		{"userAccounts.firstName", "userAccounts.first_name"},
		{"articles.*", "articles.*"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.ToDatabase(tt.in))
		})
	}
}

func TestToClient(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"title", "title"},
		{"created_at", "createdAt"},
		{"flight_duration", "flightDuration"},
		{"_id", "_id"},
		{"user_accounts.first_name", "user_accounts.firstName"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.ToClient(tt.in))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Run("snake case survives client round trip", func(t *testing.T) {
		for _, name := range []string{"id", "title", "created_at", "departure_airport_id"} {
			assert.Equal(t, name, naming.ToDatabase(naming.ToClient(name)))
		}
	})

	t.Run("camel case survives database round trip", func(t *testing.T) {
		for _, name := range []string{"id", "title", "createdAt", "departureAirportId"} {
			assert.Equal(t, name, naming.ToClient(naming.ToDatabase(name)))
		}
	})
}
