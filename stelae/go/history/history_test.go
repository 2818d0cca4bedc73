package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/openlawlibrary/stelae-sub000/stelae/go/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	ctx := context.Background()
	store, err := history.Open(ctx, filepath.Join(t.TempDir(), "history.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedPublications(t *testing.T, store *history.Store, stele string, names ...string) {
	t.Helper()
	ctx := context.Background()
	dates := []string{"2023-01-01", "2023-06-04", "2023-12-30"}
	require.NoError(t, store.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, name := range names {
			if err := history.CreatePublication(ctx, tx, name, dates[i%len(dates)], stele, nil, nil); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestFindAllNonRevokedPublications_OrdersByNameDescending(t *testing.T) {
	store := openStore(t)
	seedPublications(t, store, "openlawlibrary/law", "2023-01-01", "2023-06-04", "2023-12-30")

	rows, err := store.FindAllNonRevokedPublications(context.Background(), "openlawlibrary/law")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "2023-12-30", rows[0].Name)
	require.Equal(t, "2023-06-04", rows[1].Name)
	require.Equal(t, "2023-01-01", rows[2].Name)
}

func TestFindAllNonRevokedPublications_ExcludesRevoked(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	seedPublications(t, store, "openlawlibrary/law", "2023-01-01", "2023-06-04")
	require.NoError(t, store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return history.UpdatePublicationSetRevoked(ctx, tx, "2023-01-01", "openlawlibrary/law")
	}))

	rows, err := store.FindAllNonRevokedPublications(ctx, "openlawlibrary/law")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "2023-06-04", rows[0].Name)
}

func TestFindDocMpathByURL_ResolvesWithinStele(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return history.InsertDocumentElementsBulk(ctx, tx, []history.DocumentElement{
			{DocMpath: "us|ca|code", URL: "/us/ca/code.html", DocID: "doc-1", Stele: "openlawlibrary/law"},
		})
	}))

	mpath, ok, err := store.FindDocMpathByURL(ctx, "/us/ca/code.html", "openlawlibrary/law")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "us|ca|code", mpath)
}

func TestFindDocMpathByURL_MissingURL_ReturnsNotOK(t *testing.T) {
	store := openStore(t)
	_, ok, err := store.FindDocMpathByURL(context.Background(), "/nowhere.html", "openlawlibrary/law")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindLibMpathByURL_ResolvesWithinStele(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return history.InsertLibraryBulk(ctx, tx, []history.Library{
			{Mpath: "us|ca", URL: "/us/ca/", Stele: "openlawlibrary/law"},
		})
	}))

	mpath, ok, err := store.FindLibMpathByURL(ctx, "/us/ca/", "openlawlibrary/law")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "us|ca", mpath)
}

func TestFindAllDocumentVersionsByMpathAndPublication_SortsDescending(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := history.CreatePublication(ctx, tx, "2023-12-30", "2023-12-30", "openlawlibrary/law", nil, nil); err != nil {
			return err
		}
		phpv := []history.PublicationHasPublicationVersions{
			{Publication: "2023-12-30", ReferencedPublication: "2023-12-30", ReferencedVersion: "2023-01-01", Stele: "openlawlibrary/law"},
			{Publication: "2023-12-30", ReferencedPublication: "2023-12-30", ReferencedVersion: "2023-06-04", Stele: "openlawlibrary/law"},
		}
		if err := history.InsertPublicationHasPublicationVersionsBulk(ctx, tx, phpv); err != nil {
			return err
		}
		changes := []history.DocumentChange{
			{DocMpath: "us|ca|code", Status: history.StatusElementChanged, URL: "/us/ca/code.html", Publication: "2023-12-30", Version: "2023-01-01", Stele: "openlawlibrary/law", DocID: "doc-1"},
			{DocMpath: "us|ca|code", Status: history.StatusElementChanged, URL: "/us/ca/code.html", Publication: "2023-12-30", Version: "2023-06-04", Stele: "openlawlibrary/law", DocID: "doc-1"},
		}
		return history.InsertDocumentChangesBulk(ctx, tx, changes)
	}))

	versions, err := store.FindAllDocumentVersionsByMpathAndPublication(ctx, "us|ca|code", []string{"2023-12-30"})
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, "2023-06-04", versions[0].CodifiedDate)
	require.Equal(t, "2023-01-01", versions[1].CodifiedDate)
}

// TestFindAllDocumentVersionsByMpathAndPublication_InheritsThroughReferencedPublication
// exercises the multi-publication join a caller builds from
// FindAllRecursiveForPublication: "2023-12-30" only directly references
// "dep-a"'s version, but a document change recorded against "dep-a"
// itself must still surface when "dep-a" is included in the publication
// set.
func TestFindAllDocumentVersionsByMpathAndPublication_InheritsThroughReferencedPublication(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := history.CreatePublication(ctx, tx, "2023-12-30", "2023-12-30", "openlawlibrary/law", nil, nil); err != nil {
			return err
		}
		if err := history.CreatePublication(ctx, tx, "dep-a", "2022-01-01", "openlawlibrary/law", nil, nil); err != nil {
			return err
		}
		phpv := []history.PublicationHasPublicationVersions{
			{Publication: "2023-12-30", ReferencedPublication: "dep-a", ReferencedVersion: "2022-01-01", Stele: "openlawlibrary/law"},
			{Publication: "dep-a", ReferencedPublication: "dep-a", ReferencedVersion: "2022-01-01", Stele: "openlawlibrary/law"},
		}
		if err := history.InsertPublicationHasPublicationVersionsBulk(ctx, tx, phpv); err != nil {
			return err
		}
		changes := []history.DocumentChange{
			{DocMpath: "us|ca|code", Status: history.StatusElementChanged, URL: "/us/ca/code.html", Publication: "dep-a", Version: "2022-01-01", Stele: "openlawlibrary/law", DocID: "doc-1"},
		}
		return history.InsertDocumentChangesBulk(ctx, tx, changes)
	}))

	publications, err := store.FindAllRecursiveForPublication(ctx, "2023-12-30", "openlawlibrary/law")
	require.NoError(t, err)

	versions, err := store.FindAllDocumentVersionsByMpathAndPublication(ctx, "us|ca|code", publications)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, "2022-01-01", versions[0].CodifiedDate)
}

func TestFindAllRecursiveForPublication_WalksTransitiveReferences(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.WithTx(ctx, func(tx *sqlx.Tx) error {
		phpv := []history.PublicationHasPublicationVersions{
			{Publication: "2023-12-30", ReferencedPublication: "dep-a", ReferencedVersion: "v1", Stele: "openlawlibrary/law"},
			{Publication: "dep-a", ReferencedPublication: "dep-b", ReferencedVersion: "v1", Stele: "openlawlibrary/law"},
		}
		return history.InsertPublicationHasPublicationVersionsBulk(ctx, tx, phpv)
	}))

	names, err := store.FindAllRecursiveForPublication(ctx, "2023-12-30", "openlawlibrary/law")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"2023-12-30", "dep-a", "dep-b"}, names)
}
