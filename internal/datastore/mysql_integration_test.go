//go:build integration

package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/greencanopy/allometree/internal/conf"
)

func TestMySQLStoreRoundTrip(t *testing.T) {
	t.Attr("component", "datastore")
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.4",
		tcmysql.WithDatabase("allometree"),
		tcmysql.WithUsername("allometree"),
		tcmysql.WithPassword("allometree"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	store, err := Open(ctx, &conf.DatastoreSettings{
		Type: conf.DatastoreMySQL,
		MySQL: conf.MySQLSettings{
			Host:     host,
			Port:     port.Port(),
			Username: "allometree",
			Password: "allometree",
			Database: "allometree",
		},
	}, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.Equal(t, conf.DatastoreMySQL, store.Dialect())

	_, err = store.SaveRecords(ctx, sampleRecords())
	require.NoError(t, err)

	loaded, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), loaded)
}
