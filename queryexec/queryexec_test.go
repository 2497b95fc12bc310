package queryexec

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandanapadala-pg/hotcommands/hot/types"
	hottest "github.com/vandanapadala-pg/hotcommands/internal/testing"
)

func TestQueryReturnsRows(t *testing.T) {
	conn := hottest.CreateTestDB(t)
	_, err := conn.Exec(`
		CREATE TABLE cells (region TEXT, total INTEGER);
		INSERT INTO cells VALUES ('north', 12), ('south', 7);`)
	require.NoError(t, err)

	exec := New(conn, 0)
	rows, err := exec.Query(context.Background(), "SELECT region, total FROM cells ORDER BY total DESC")
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "total"}, rows.Columns)
	require.Len(t, rows.Values, 2)
	assert.Equal(t, "north", rows.Values[0][0])
	assert.Equal(t, int64(12), rows.Values[0][1])
}

func TestQueryBoundsRowCount(t *testing.T) {
	conn := hottest.CreateTestDB(t)
	_, err := conn.Exec("CREATE TABLE nums (n INTEGER)")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := conn.Exec("INSERT INTO nums VALUES (?)", i)
		require.NoError(t, err)
	}

	exec := New(conn, 3)
	rows, err := exec.Query(context.Background(), "SELECT n FROM nums")
	require.NoError(t, err)
	assert.Len(t, rows.Values, 3)
}

func TestQuerySyntaxErrorClassified(t *testing.T) {
	exec := New(hottest.CreateTestDB(t), 0)
	_, err := exec.Query(context.Background(), "SELECT FROM nowhere WHERE")
	require.Error(t, err)
	assert.Equal(t, types.ErrKindQueryExecution, types.KindOf(err))
}

func TestQueryCancelledContext(t *testing.T) {
	exec := New(hottest.CreateTestDB(t), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.Query(ctx, "SELECT 1")
	assert.Error(t, err)
}

func TestQueryIterationErrorClassified(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mockRows := sqlmock.NewRows([]string{"region"}).
		AddRow("north").
		RowError(0, sql.ErrConnDone)
	mock.ExpectQuery("SELECT region FROM cells").WillReturnRows(mockRows)

	exec := New(conn, 0)
	_, err = exec.Query(context.Background(), "SELECT region FROM cells")
	require.Error(t, err)
	assert.Equal(t, types.ErrKindQueryExecution, types.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryConvertsBytesToStrings(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mockRows := sqlmock.NewRows([]string{"region"}).AddRow([]byte("north"))
	mock.ExpectQuery("SELECT region FROM cells").WillReturnRows(mockRows)

	exec := New(conn, 0)
	rows, err := exec.Query(context.Background(), "SELECT region FROM cells")
	require.NoError(t, err)
	require.Len(t, rows.Values, 1)
	assert.Equal(t, "north", rows.Values[0][0])
}
