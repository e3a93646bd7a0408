package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/edugate/sitecms/internal/database"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when MONGODB_URI is set.
func TestMongoRepo_RoundTrip(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, uri, 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(fmt.Sprintf("sitecms_test_%d", time.Now().UnixNano()))
	defer func() { _ = db.Drop(ctx) }()
	repo := NewMongoRepo(db.Collection("documents"), "content5.json")

	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, []byte(`{"b":1,"a":2}`)))
	require.NoError(t, repo.Save(ctx, []byte(`{"b":1,"a":3}`)))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, `{"b":1,"a":3}`, string(got))
}
