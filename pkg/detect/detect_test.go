package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
)

func TestRecordKind(t *testing.T) {
	t.Run("LocalIndividualReferenceWins", func(t *testing.T) {
		row := map[string]string{
			"reference_number": "LSL/IN/42/2024",
			"company":          "should be ignored",
		}
		assert.Equal(t, models.RecordKindIndividual, RecordKind(row))
	})

	t.Run("LocalEntityReferenceWins", func(t *testing.T) {
		row := map[string]string{
			"reference_number": "LSL/EN/7/2023",
			"dob":              "ignored",
		}
		assert.Equal(t, models.RecordKindEntity, RecordKind(row))
	})

	t.Run("DobAndNicMeanIndividual", func(t *testing.T) {
		row := map[string]string{
			"name": "Jane Doe",
			"dob":  "1980-01-01",
			"nic":  "801234567V",
		}
		assert.Equal(t, models.RecordKindIndividual, RecordKind(row))
	})

	t.Run("EntityColumnsMeanEntity", func(t *testing.T) {
		row := map[string]string{
			"entity_name": "Acme Trading",
			"street":      "1 Harbor Rd",
			"company":     "Acme",
		}
		assert.Equal(t, models.RecordKindEntity, RecordKind(row))
	})

	t.Run("TieFavorsIndividual", func(t *testing.T) {
		row := map[string]string{"name": "ambiguous"}
		assert.Equal(t, models.RecordKindIndividual, RecordKind(row))
	})

	t.Run("HeaderCaseAndSpacing", func(t *testing.T) {
		row := map[string]string{
			"First Name": "Jane",
			"Second-Name": "Doe",
			"DOB":        "1980",
		}
		assert.Equal(t, models.RecordKindIndividual, RecordKind(row))
	})
}

func TestDialect(t *testing.T) {
	t.Run("LocalReference", func(t *testing.T) {
		row := map[string]string{"reference_number": "LSL/IN/42/2024"}
		assert.Equal(t, models.DialectLocal, Dialect(row))
	})

	t.Run("ExternalDataID", func(t *testing.T) {
		row := map[string]string{"dataid": "6908555", "un_list_type": "Al-Qaida"}
		assert.Equal(t, models.DialectExternal, Dialect(row))
	})

	t.Run("NicColumnIsLocal", func(t *testing.T) {
		row := map[string]string{"nic": "801234567V"}
		assert.Equal(t, models.DialectLocal, Dialect(row))
	})

	t.Run("EmptyRowDefaultsLocal", func(t *testing.T) {
		assert.Equal(t, models.DialectLocal, Dialect(map[string]string{}))
		assert.Equal(t, models.RecordKindIndividual, RecordKind(map[string]string{}))
	})
}
