package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
)

func testProvenance() Provenance {
	return Provenance{
		Source:   "upload",
		ListType: models.ListTypeLocalSanctions,
	}
}

func fixedMapper() *Mapper {
	m := New()
	m.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return m
}

func TestMapIndividual(t *testing.T) {
	m := fixedMapper()

	t.Run("DiscreteNameParts", func(t *testing.T) {
		row := map[string]string{
			"reference_number": "LSL/IN/12/2024",
			"first_name":       "Jane",
			"surname":          "Doe",
			"dob":              "1980-04-12",
			"nic":              "801234567v",
			"nationality":      "Sri Lankan; British",
		}
		ind := m.MapIndividual(row, models.DialectLocal, testProvenance())

		assert.Equal(t, "LSL/IN/12/2024", ind.ReferenceNumber)
		assert.Equal(t, "Jane", ind.FirstName)
		assert.Equal(t, "Doe", ind.SecondName)
		assert.Equal(t, "Jane Doe", ind.DisplayName())
		assert.Equal(t, "801234567V", ind.NationalID)
		assert.Equal(t, []string{"Sri Lankan", "British"}, []string(ind.Nationalities))
		assert.True(t, ind.IsActive)
	})

	t.Run("CombinedNameIsSplit", func(t *testing.T) {
		row := map[string]string{
			"reference_number": "LSL/IN/13/2024",
			"name":             "Abdul Rahman bin Hassan",
		}
		ind := m.MapIndividual(row, models.DialectLocal, testProvenance())

		assert.Equal(t, "Abdul", ind.FirstName)
		assert.Equal(t, "Rahman", ind.SecondName)
		assert.Equal(t, "bin Hassan", ind.ThirdName)
	})

	t.Run("BlankRowMapsToEmptySets", func(t *testing.T) {
		row := map[string]string{
			"first_name":  "",
			"nationality": "N/A",
			"dob":         "   ",
			"alias":       "-",
		}
		ind := m.MapIndividual(row, models.DialectLocal, testProvenance())

		assert.Empty(t, ind.Aliases)
		assert.Empty(t, ind.Nationalities)
		assert.Empty(t, ind.DateOfBirth)
		for _, v := range ind.Aliases {
			assert.NotEmpty(t, v)
		}
	})

	t.Run("LocalReferenceSynthesized", func(t *testing.T) {
		ind := m.MapIndividual(map[string]string{"name": "X Y"}, models.DialectLocal, testProvenance())
		assert.Regexp(t, `^LSL/IN/\d+/2024$`, ind.ReferenceNumber)

		next := m.MapIndividual(map[string]string{"name": "X Y"}, models.DialectLocal, testProvenance())
		assert.NotEqual(t, ind.ReferenceNumber, next.ReferenceNumber)
	})

	t.Run("ExternalReferencePassesThrough", func(t *testing.T) {
		ind := m.MapIndividual(map[string]string{"dataid": "6908555"}, models.DialectExternal, testProvenance())
		assert.Equal(t, "6908555", ind.ReferenceNumber)
	})

	t.Run("ExternalFallbackIsDistinct", func(t *testing.T) {
		a := m.MapIndividual(map[string]string{}, models.DialectExternal, testProvenance())
		b := m.MapIndividual(map[string]string{}, models.DialectExternal, testProvenance())
		require.NotEmpty(t, a.ReferenceNumber)
		assert.NotEqual(t, a.ReferenceNumber, b.ReferenceNumber)
	})

	t.Run("ExternalFallbackFollowsSequence", func(t *testing.T) {
		seq := &AtomicSequence{}
		sm := NewWithSequence(seq)
		a := sm.MapIndividual(map[string]string{}, models.DialectExternal, testProvenance())
		b := sm.MapIndividual(map[string]string{}, models.DialectExternal, testProvenance())
		assert.Equal(t, "EXT-1", a.ReferenceNumber)
		assert.Equal(t, "EXT-2", b.ReferenceNumber)
	})

	t.Run("DocumentNumbersUpperCased", func(t *testing.T) {
		row := map[string]string{
			"reference_number": "LSL/IN/14/2024",
			"passport_number":  "n1234567; d987",
		}
		ind := m.MapIndividual(row, models.DialectLocal, testProvenance())
		assert.Equal(t, []string{"N1234567", "D987"}, []string(ind.DocNumbers))
	})
}

func TestMapEntity(t *testing.T) {
	m := fixedMapper()

	t.Run("Basic", func(t *testing.T) {
		row := map[string]string{
			"reference_number": "LSL/EN/3/2024",
			"entity_name":      "Acme  Trading Co",
			"entity_alias":     "ATC|Acme Co",
			"city":             "Colombo",
		}
		ent := m.MapEntity(row, models.DialectLocal, testProvenance())

		assert.Equal(t, "LSL/EN/3/2024", ent.ReferenceNumber)
		assert.Equal(t, "Acme Trading Co", ent.Name)
		assert.Equal(t, []string{"ATC", "Acme Co"}, []string(ent.Aliases))
		assert.Equal(t, []string{"Colombo"}, []string(ent.AddressCities))
	})

	t.Run("EntityReferenceSynthesized", func(t *testing.T) {
		ent := m.MapEntity(map[string]string{"entity_name": "Acme"}, models.DialectLocal, testProvenance())
		assert.Regexp(t, `^LSL/EN/\d+/2024$`, ent.ReferenceNumber)
	})

	t.Run("BirthYear", func(t *testing.T) {
		ind := models.Individual{DateOfBirth: "12 April 1980"}
		assert.Equal(t, "1980", ind.BirthYear())

		ind = models.Individual{DateOfBirth: "approx. 1975"}
		assert.Equal(t, "1975", ind.BirthYear())

		ind = models.Individual{}
		assert.Equal(t, "", ind.BirthYear())
	})
}

func TestMapperIsDeterministic(t *testing.T) {
	row := map[string]string{
		"reference_number": "LSL/IN/99/2024",
		"first_name":       "Same",
		"surname":          "Row",
	}
	m := fixedMapper()
	a := m.MapIndividual(row, models.DialectLocal, testProvenance())
	b := m.MapIndividual(row, models.DialectLocal, testProvenance())
	assert.Equal(t, a, b)
}
