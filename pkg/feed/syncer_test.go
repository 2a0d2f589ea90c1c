package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entityrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/entity"
	individualrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/individual"
	"github.com/Sanction-Guard/sanctionguard/internal/searchindex"
	"github.com/Sanction-Guard/sanctionguard/pkg/mapper"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
)

const feedXML = `<CONSOLIDATED_LIST>
<INDIVIDUALS>
<INDIVIDUAL>
<DATAID>6908555</DATAID>
<FIRST_NAME>ABDUL</FIRST_NAME>
<SECOND_NAME>AZIZ</SECOND_NAME>
<INDIVIDUAL_ALIAS><QUALITY>Good</QUALITY><ALIAS_NAME>Abdul Aziz Abbasin</ALIAS_NAME></INDIVIDUAL_ALIAS>
<INDIVIDUAL_DATE_OF_BIRTH><TYPE_OF_DATE>EXACT</TYPE_OF_DATE><DATE>1969-01-01</DATE></INDIVIDUAL_DATE_OF_BIRTH>
<NATIONALITY><VALUE>Afghanistan</VALUE></NATIONALITY>
<INDIVIDUAL_DOCUMENT><TYPE_OF_DOCUMENT>Passport</TYPE_OF_DOCUMENT><NUMBER>ab123456</NUMBER><ISSUING_COUNTRY>Afghanistan</ISSUING_COUNTRY></INDIVIDUAL_DOCUMENT>
</INDIVIDUAL>
<INDIVIDUAL>
<DATAID>6908556</DATAID>
<FIRST_NAME>N/A</FIRST_NAME>
<SECOND_NAME>HAQQANI</SECOND_NAME>
</INDIVIDUAL>
</INDIVIDUALS>
<ENTITIES>
<ENTITY>
<DATAID>110</DATAID>
<FIRST_NAME>ZVEZDA HOLDINGS</FIRST_NAME>
<ENTITY_ALIAS><QUALITY>a.k.a.</QUALITY><ALIAS_NAME>Zvezda Group</ALIAS_NAME></ENTITY_ALIAS>
<ENTITY_ADDRESS><CITY>Moscow</CITY><COUNTRY>Russian Federation</COUNTRY></ENTITY_ADDRESS>
</ENTITY>
</ENTITIES>
</CONSOLIDATED_LIST>`

type fakeIndividualStore struct {
	existing map[string]*models.Individual
	upserts  []models.Individual
	failRef  string
}

func (f *fakeIndividualStore) Upsert(ctx context.Context, ind models.Individual) (*individualrepo.UpsertResult, error) {
	if f.failRef != "" && ind.ReferenceNumber == f.failRef {
		return nil, errors.New("store unavailable")
	}
	f.upserts = append(f.upserts, ind)
	stored := ind
	return &individualrepo.UpsertResult{Individual: &stored, IsNew: true}, nil
}

func (f *fakeIndividualStore) GetByReference(ctx context.Context, referenceNumber string, listType models.ListType) (*models.Individual, error) {
	return f.existing[referenceNumber], nil
}

type fakeEntityStore struct {
	existing map[string]*models.Entity
	upserts  []models.Entity
}

func (f *fakeEntityStore) Upsert(ctx context.Context, ent models.Entity) (*entityrepo.UpsertResult, error) {
	f.upserts = append(f.upserts, ent)
	stored := ent
	return &entityrepo.UpsertResult{Entity: &stored, IsNew: true}, nil
}

func (f *fakeEntityStore) GetByReference(ctx context.Context, referenceNumber string, listType models.ListType) (*models.Entity, error) {
	return f.existing[referenceNumber], nil
}

type fakeIndexer struct {
	docs []searchindex.Document
}

func (f *fakeIndexer) BulkIndex(ctx context.Context, docs []searchindex.Document) error {
	f.docs = append(f.docs, docs...)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

func newTestSyncer(url string, individuals *fakeIndividualStore, entities *fakeEntityStore, index *fakeIndexer) *Syncer {
	cfg := Config{
		URL:         url,
		Timeout:     5 * time.Second,
		SourceLabel: "un_consolidated",
		BatchSize:   100,
	}
	return NewSyncer(cfg, testLogger(), mapper.New(), individuals, entities, index, nil)
}

func TestSyncerSync(t *testing.T) {
	t.Run("ingests individuals and entities from the feed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(feedXML))
		}))
		defer server.Close()

		individuals := &fakeIndividualStore{}
		entities := &fakeEntityStore{}
		index := &fakeIndexer{}

		err := newTestSyncer(server.URL, individuals, entities, index).Sync(context.Background())
		require.NoError(t, err)

		require.Len(t, individuals.upserts, 2)
		assert.Equal(t, "6908555", individuals.upserts[0].ReferenceNumber)
		assert.Equal(t, "ABDUL", individuals.upserts[0].FirstName)
		assert.Equal(t, []string{"Abdul Aziz Abbasin"}, []string(individuals.upserts[0].Aliases))
		assert.Equal(t, []string{"AB123456"}, []string(individuals.upserts[0].DocNumbers))
		assert.Equal(t, models.ListTypeExternalSanctions, individuals.upserts[0].ListType)

		// The "N/A" placeholder is omitted, not stored.
		assert.Empty(t, individuals.upserts[1].FirstName)
		assert.Equal(t, "HAQQANI", individuals.upserts[1].SecondName)

		require.Len(t, entities.upserts, 1)
		assert.Equal(t, "ZVEZDA HOLDINGS", entities.upserts[0].Name)
		assert.Equal(t, []string{"Moscow"}, []string(entities.upserts[0].AddressCities))

		assert.Len(t, index.docs, 3)
	})

	t.Run("reference collision with a different record is skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(feedXML))
		}))
		defer server.Close()

		individuals := &fakeIndividualStore{
			existing: map[string]*models.Individual{
				"6908555": {
					ReferenceNumber: "6908555",
					FirstName:       "Somebody",
					SecondName:      "Else",
					Aliases:         []string{"Unrelated Alias"},
				},
			},
		}

		err := newTestSyncer(server.URL, individuals, &fakeEntityStore{}, &fakeIndexer{}).Sync(context.Background())
		require.NoError(t, err)

		for _, ind := range individuals.upserts {
			assert.NotEqual(t, "6908555", ind.ReferenceNumber)
		}
	})

	t.Run("row failures do not abort the sync", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(feedXML))
		}))
		defer server.Close()

		individuals := &fakeIndividualStore{failRef: "6908555"}
		entities := &fakeEntityStore{}

		err := newTestSyncer(server.URL, individuals, entities, &fakeIndexer{}).Sync(context.Background())
		require.NoError(t, err)
		assert.Len(t, individuals.upserts, 1)
		assert.Len(t, entities.upserts, 1)
	})

	t.Run("top-level fetch failure aborts the sync", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		err := newTestSyncer(server.URL, &fakeIndividualStore{}, &fakeEntityStore{}, &fakeIndexer{}).Sync(context.Background())
		assert.Error(t, err)
	})

	t.Run("unparseable document aborts the sync", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not xml at all <<<"))
		}))
		defer server.Close()

		err := newTestSyncer(server.URL, &fakeIndividualStore{}, &fakeEntityStore{}, &fakeIndexer{}).Sync(context.Background())
		assert.Error(t, err)
	})
}
