package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/questdb/mock"
)

var testFiles = fstest.MapFS{
	"001_order_events.up.sql":   {Data: []byte("CREATE TABLE order_events (ts TIMESTAMP);\n")},
	"001_order_events.down.sql": {Data: []byte("DROP TABLE order_events;")},
	"002_orders.up.sql":         {Data: []byte("CREATE TABLE orders (ts TIMESTAMP);")},
	"003_markets.up.sql":        {Data: []byte("CREATE TABLE markets (ts TIMESTAMP);")},
	"README.md":                 {Data: []byte("not a migration")},
}

type testFixture struct {
	client *mock.MockQuestDBClient
	rows   *mock.MockRowsInterface
	runner *Runner
}

func setupTestFixture(t *testing.T) *testFixture {
	ctrl := gomock.NewController(t)
	client := mock.NewMockQuestDBClient(ctrl)
	return &testFixture{
		client: client,
		rows:   mock.NewMockRowsInterface(ctrl),
		runner: NewRunner(client, testFiles, logger.NewNop()),
	}
}

func (f *testFixture) expectApplied(ids ...string) {
	f.client.EXPECT().Query(gomock.Any(), appliedQuery).Return(f.rows, nil)
	for _, id := range ids {
		id := id
		f.rows.EXPECT().Next().Return(true)
		f.rows.EXPECT().Scan(gomock.Any()).DoAndReturn(func(dest ...any) error {
			*dest[0].(*string) = id
			return nil
		})
	}
	f.rows.EXPECT().Next().Return(false)
	f.rows.EXPECT().Err().Return(nil)
	f.rows.EXPECT().Close()
}

func TestRunner_Load(t *testing.T) {
	f := setupTestFixture(t)

	migrations, err := f.runner.Load()
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, Migration{
		ID:      "001_order_events",
		Name:    "order_events",
		UpSQL:   "CREATE TABLE order_events (ts TIMESTAMP);",
		DownSQL: "DROP TABLE order_events;",
	}, migrations[0])
	assert.Equal(t, "002_orders", migrations[1].ID)
	assert.Empty(t, migrations[1].DownSQL)
	assert.Equal(t, "markets", migrations[2].Name)
}

func TestRunner_MigrateUp(t *testing.T) {
	testCases := []struct {
		name     string
		steps    int
		mockFn   func(f *testFixture)
		assertFn func(t *testing.T, err error)
	}{
		{
			name: "applies pending migrations in order",
			mockFn: func(f *testFixture) {
				f.expectApplied("001_order_events")
				gomock.InOrder(
					f.client.EXPECT().Exec(gomock.Any(), "CREATE TABLE orders (ts TIMESTAMP);").Return(nil),
					f.client.EXPECT().Exec(gomock.Any(), recordQuery, "002_orders", "orders").Return(nil),
					f.client.EXPECT().Exec(gomock.Any(), "CREATE TABLE markets (ts TIMESTAMP);").Return(nil),
					f.client.EXPECT().Exec(gomock.Any(), recordQuery, "003_markets", "markets").Return(nil),
				)
			},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:  "steps limit the batch",
			steps: 1,
			mockFn: func(f *testFixture) {
				f.expectApplied()
				f.client.EXPECT().Exec(gomock.Any(), "CREATE TABLE order_events (ts TIMESTAMP);").Return(nil)
				f.client.EXPECT().Exec(gomock.Any(), recordQuery, "001_order_events", "order_events").Return(nil)
			},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "statement failure stops the run",
			mockFn: func(f *testFixture) {
				f.expectApplied("001_order_events")
				f.client.EXPECT().Exec(gomock.Any(), "CREATE TABLE orders (ts TIMESTAMP);").Return(errors.New("table busy"))
			},
			assertFn: func(t *testing.T, err error) {
				assert.EqualError(t, err, "failed to apply migration 002_orders: table busy")
			},
		},
		{
			name: "applied query failure",
			mockFn: func(f *testFixture) {
				f.client.EXPECT().Query(gomock.Any(), appliedQuery).Return(nil, errors.New("connection refused"))
			},
			assertFn: func(t *testing.T, err error) {
				assert.EqualError(t, err, "connection refused")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			tc.mockFn(f)
			tc.assertFn(t, f.runner.MigrateUp(context.Background(), tc.steps))
		})
	}
}

func TestRunner_MigrateDown(t *testing.T) {
	testCases := []struct {
		name     string
		steps    int
		mockFn   func(f *testFixture)
		assertFn func(t *testing.T, err error)
	}{
		{
			name:   "steps are required",
			steps:  0,
			mockFn: func(f *testFixture) {},
			assertFn: func(t *testing.T, err error) {
				assert.EqualError(t, err, "steps must be greater than 0 for down migrations")
			},
		},
		{
			name:  "reverts the latest applied migration",
			steps: 1,
			mockFn: func(f *testFixture) {
				f.expectApplied("001_order_events")
				f.client.EXPECT().Exec(gomock.Any(), "DROP TABLE order_events;").Return(nil)
				f.client.EXPECT().Exec(gomock.Any(), removeQuery, "001_order_events").Return(nil)
			},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:  "irreversible migration",
			steps: 1,
			mockFn: func(f *testFixture) {
				f.expectApplied("001_order_events", "002_orders")
			},
			assertFn: func(t *testing.T, err error) {
				assert.EqualError(t, err, "no down statement for migration 002_orders")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			tc.mockFn(f)
			tc.assertFn(t, f.runner.MigrateDown(context.Background(), tc.steps))
		})
	}
}

func TestRunner_EnsureMigrationTable(t *testing.T) {
	f := setupTestFixture(t)
	f.client.EXPECT().Exec(gomock.Any(), createTableQuery).Return(nil)

	assert.NoError(t, f.runner.EnsureMigrationTable(context.Background()))
}
