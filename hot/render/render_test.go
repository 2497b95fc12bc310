package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

func value(t types.ParamType, typed interface{}) types.Value {
	return types.Value{Spec: types.ParameterSpec{Type: t}, Typed: typed}
}

func TestRenderNLQuery(t *testing.T) {
	validated := types.ValidatedParams{
		"threshold": value(types.ParamFloat, 0.8),
	}

	out, err := Render("show cells with utilization > {{threshold:float:required}}", types.KindNLQuery, validated)
	require.NoError(t, err)
	assert.Equal(t, "show cells with utilization > 0.8", out)
}

func TestRenderDirectQueryQuotesStrings(t *testing.T) {
	validated := types.ValidatedParams{
		"region": value(types.ParamString, "west"),
		"limit":  value(types.ParamInteger, int64(5)),
	}

	out, err := Render("SELECT * FROM cells WHERE region = {{region}} LIMIT {{limit:integer}}", types.KindDirectQuery, validated)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM cells WHERE region = 'west' LIMIT 5", out)
}

func TestRenderDirectQueryEscapesInjection(t *testing.T) {
	validated := types.ValidatedParams{
		"region": value(types.ParamString, "x'; DROP TABLE cells; --"),
	}

	out, err := Render("SELECT * FROM cells WHERE region = {{region}}", types.KindDirectQuery, validated)
	require.NoError(t, err)
	// The malicious quote is doubled, so the whole value stays one literal
	assert.Equal(t, "SELECT * FROM cells WHERE region = 'x''; DROP TABLE cells; --'", out)
	assert.NotContains(t, out, "= 'x';")
}

func TestRenderNoPlaceholdersRoundTrips(t *testing.T) {
	text := "SELECT COUNT(*) FROM cells"
	out, err := Render(text, types.KindDirectQuery, types.ValidatedParams{})
	require.NoError(t, err)
	assert.Equal(t, text, out)
}

func TestRenderUnresolvedPlaceholder(t *testing.T) {
	_, err := Render("hello {{name}}", types.KindNLQuery, types.ValidatedParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnresolvedPlaceholder))
}

func TestRenderRejectsToolCall(t *testing.T) {
	_, err := Render("{{x}}", types.KindToolCall, types.ValidatedParams{})
	assert.Error(t, err)
}

func TestRenderRepeatedPlaceholder(t *testing.T) {
	validated := types.ValidatedParams{"name": value(types.ParamString, "alice")}
	out, err := Render("{{name}} and {{name}} again", types.KindNLQuery, validated)
	require.NoError(t, err)
	assert.Equal(t, "alice and alice again", out)
}

func TestSQLLiteral(t *testing.T) {
	assert.Equal(t, "42", SQLLiteral(value(types.ParamInteger, int64(42))))
	assert.Equal(t, "0.8", SQLLiteral(value(types.ParamFloat, 0.8)))
	assert.Equal(t, "1", SQLLiteral(value(types.ParamBoolean, true)))
	assert.Equal(t, "0", SQLLiteral(value(types.ParamBoolean, false)))
	assert.Equal(t, "'it''s'", SQLLiteral(value(types.ParamString, "it's")))
	assert.Equal(t, "('a', 'b')", SQLLiteral(value(types.ParamList, []interface{}{"a", "b"})))

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "'2026-03-14'", SQLLiteral(types.Value{
		Spec:  types.ParameterSpec{Type: types.ParamDate},
		Typed: date,
	}))
}

func TestArgs(t *testing.T) {
	t.Run("builds typed argument map", func(t *testing.T) {
		validated := types.ValidatedParams{
			"cell":  value(types.ParamString, "C1234"),
			"count": value(types.ParamInteger, int64(3)),
		}

		args, err := Args("restart {{cell}} {{count:integer}} times", validated)
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"cell": "C1234", "count": int64(3)}, args)
	})

	t.Run("timestamps serialize as canonical strings", func(t *testing.T) {
		date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		validated := types.ValidatedParams{
			"since": types.Value{Spec: types.ParameterSpec{Type: types.ParamDate}, Typed: date},
		}

		args, err := Args("report since {{since:date}}", validated)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-14", args["since"])
	})

	t.Run("unresolved placeholder fails", func(t *testing.T) {
		_, err := Args("{{missing}}", types.ValidatedParams{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrUnresolvedPlaceholder))
	})
}
