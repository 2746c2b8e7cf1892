package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmployee(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("valid employee", func(t *testing.T) {
		t.Parallel()

		employee, err := NewEmployee(tenantID, "  Maria Souza  ", " REG-1042 ")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, employee.ID)
		assert.Equal(t, tenantID, employee.TenantID)
		assert.Equal(t, "Maria Souza", employee.Name)
		assert.Equal(t, "REG-1042", employee.RegistrationNumber)
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		_, err := NewEmployee(tenantID, "   ", "REG-1042")
		assert.ErrorIs(t, err, ErrEmployeeNameEmpty)
	})

	t.Run("missing tenant", func(t *testing.T) {
		t.Parallel()

		_, err := NewEmployee(uuid.Nil, "Maria Souza", "REG-1042")
		assert.ErrorIs(t, err, ErrEmployeeTenantIDEmpty)
	})
}

func TestEmployeeSubjectIdentifier(t *testing.T) {
	t.Parallel()

	employee, err := NewEmployee(uuid.New(), "Maria Souza", "REG-1042")
	require.NoError(t, err)
	assert.Equal(t, "REG-1042", employee.SubjectIdentifier())

	employee.RegistrationNumber = ""
	assert.Equal(t, employee.ID.String(), employee.SubjectIdentifier())
}
