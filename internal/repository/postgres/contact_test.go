package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
)

func TestContactRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewContactRepository(mock)
	c := &domain.CaseContact{
		ListingCaseID: 1,
		FirstName:     "Jane",
		LastName:      "Citizen",
		CompanyName:   "Harbour Realty",
		PhoneNumber:   "0400 000 000",
		Email:         "jane@harbour.test",
	}

	mock.ExpectQuery("INSERT INTO case_contacts").
		WithArgs(int64(1), "Jane", "Citizen", "Harbour Realty", "0400 000 000", "jane@harbour.test", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(3), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_ListByListingCase(t *testing.T) {
	mock := newMock(t)
	repo := NewContactRepository(mock)

	cols := []string{"id", "listing_case_id", "first_name", "last_name", "company_name", "phone_number", "email", "profile_url"}
	mock.ExpectQuery("SELECT (.+) FROM case_contacts").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(3), int64(1), "Jane", "Citizen", "Harbour Realty", "0400", "jane@harbour.test", ""))

	contacts, err := repo.ListByListingCase(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Jane", contacts[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
