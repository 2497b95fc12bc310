package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

func specSet(specs ...types.ParameterSpec) map[string]types.ParameterSpec {
	out := make(map[string]types.ParameterSpec, len(specs))
	for _, s := range specs {
		out[s.Name] = s
	}
	return out
}

func validationError(t *testing.T, err error) *types.ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %T: %v", err, err)
	return verr
}

func TestValidateRequired(t *testing.T) {
	specs := specSet(types.ParameterSpec{Name: "threshold", Type: types.ParamFloat, Required: true})

	t.Run("absent required fails", func(t *testing.T) {
		_, err := Validate(specs, map[string]interface{}{})
		verr := validationError(t, err)
		assert.True(t, verr.Has(types.ErrKindMissingRequired, "threshold"))
	})

	t.Run("wrong type fails", func(t *testing.T) {
		_, err := Validate(specs, map[string]interface{}{"threshold": "abc"})
		verr := validationError(t, err)
		assert.True(t, verr.Has(types.ErrKindTypeMismatch, "threshold"))
	})

	t.Run("valid value coerces from string", func(t *testing.T) {
		validated, err := Validate(specs, map[string]interface{}{"threshold": "0.8"})
		require.NoError(t, err)
		assert.Equal(t, 0.8, validated["threshold"].Typed)
		assert.Equal(t, "0.8", validated["threshold"].CanonicalString())
	})
}

func TestValidateDefaults(t *testing.T) {
	specs := specSet(
		types.ParameterSpec{Name: "limit", Type: types.ParamInteger, Default: "10"},
		types.ParameterSpec{Name: "note", Type: types.ParamString},
	)

	validated, err := Validate(specs, map[string]interface{}{})
	require.NoError(t, err)

	limit, ok := validated["limit"]
	require.True(t, ok)
	assert.Equal(t, int64(10), limit.Typed)
	assert.True(t, limit.FromDefault)

	// Optional without default stays unset, not empty string
	_, ok = validated["note"]
	assert.False(t, ok)
}

func TestValidateUnknownParameter(t *testing.T) {
	specs := specSet(types.ParameterSpec{Name: "region", Type: types.ParamString})

	_, err := Validate(specs, map[string]interface{}{"region": "west", "regoin": "east"})
	verr := validationError(t, err)
	assert.True(t, verr.Has(types.ErrKindUnknownParameter, "regoin"))
}

func TestValidateCollectsAllIssues(t *testing.T) {
	specs := specSet(
		types.ParameterSpec{Name: "a", Type: types.ParamInteger, Required: true},
		types.ParameterSpec{Name: "b", Type: types.ParamFloat, Required: true},
	)

	_, err := Validate(specs, map[string]interface{}{"b": "abc", "c": 1})
	verr := validationError(t, err)
	require.Len(t, verr.Issues, 3)
	assert.True(t, verr.Has(types.ErrKindMissingRequired, "a"))
	assert.True(t, verr.Has(types.ErrKindTypeMismatch, "b"))
	assert.True(t, verr.Has(types.ErrKindUnknownParameter, "c"))
}

func TestValidateOptions(t *testing.T) {
	specs := specSet(types.ParameterSpec{
		Name:    "tier",
		Type:    types.ParamString,
		Options: []interface{}{"gold", "silver"},
	})

	t.Run("member passes", func(t *testing.T) {
		_, err := Validate(specs, map[string]interface{}{"tier": "gold"})
		require.NoError(t, err)
	})

	t.Run("non-member fails", func(t *testing.T) {
		_, err := Validate(specs, map[string]interface{}{"tier": "bronze"})
		verr := validationError(t, err)
		require.True(t, verr.Has(types.ErrKindInvalidOption, "tier"))
		assert.Contains(t, verr.Issues[0].Message, "gold")
	})

	t.Run("list membership checks elements", func(t *testing.T) {
		listSpecs := specSet(types.ParameterSpec{
			Name:    "tiers",
			Type:    types.ParamList,
			Options: []interface{}{"gold", "silver"},
		})
		_, err := Validate(listSpecs, map[string]interface{}{"tiers": "gold,bronze"})
		verr := validationError(t, err)
		assert.True(t, verr.Has(types.ErrKindInvalidOption, "tiers"))
	})
}

func TestValidatePattern(t *testing.T) {
	specs := specSet(types.ParameterSpec{
		Name:            "cell_id",
		Type:            types.ParamString,
		ValidationRegex: `^C[0-9]{4}$`,
	})

	t.Run("match passes", func(t *testing.T) {
		_, err := Validate(specs, map[string]interface{}{"cell_id": "C1234"})
		require.NoError(t, err)
	})

	t.Run("mismatch fails", func(t *testing.T) {
		_, err := Validate(specs, map[string]interface{}{"cell_id": "X1"})
		verr := validationError(t, err)
		assert.True(t, verr.Has(types.ErrKindPatternMismatch, "cell_id"))
	})

	t.Run("broken pattern is a definition error", func(t *testing.T) {
		broken := specSet(types.ParameterSpec{Name: "x", Type: types.ParamString, ValidationRegex: "("})
		_, err := Validate(broken, map[string]interface{}{"x": "y"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidDefinition))
	})
}

func TestCoerce(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		v, err := Coerce("42", types.ParamInteger)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)

		v, err = Coerce(float64(42), types.ParamInteger)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)

		_, err = Coerce(42.5, types.ParamInteger)
		assert.Error(t, err, "fractional value must not silently truncate")
	})

	t.Run("boolean", func(t *testing.T) {
		v, err := Coerce("true", types.ParamBoolean)
		require.NoError(t, err)
		assert.Equal(t, true, v)

		_, err = Coerce("maybe", types.ParamBoolean)
		assert.Error(t, err)
	})

	t.Run("date", func(t *testing.T) {
		v, err := Coerce("2026-03-14", types.ParamDate)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), v)

		_, err = Coerce("14/03/2026", types.ParamDate)
		assert.Error(t, err)
	})

	t.Run("datetime accepts bare date", func(t *testing.T) {
		v, err := Coerce("2026-03-14", types.ParamDateTime)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), v)
	})

	t.Run("list from comma string", func(t *testing.T) {
		v, err := Coerce("a, b ,c", types.ParamList)
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"a", "b", "c"}, v)
	})
}

func TestCheckSpecs(t *testing.T) {
	t.Run("valid set passes", func(t *testing.T) {
		err := CheckSpecs(specSet(
			types.ParameterSpec{Name: "limit", Type: types.ParamInteger, Default: "5", Options: []interface{}{"5", "10"}},
		))
		require.NoError(t, err)
	})

	t.Run("required with default fails", func(t *testing.T) {
		err := CheckSpecs(specSet(types.ParameterSpec{Name: "x", Type: types.ParamString, Required: true, Default: "y"}))
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidDefinition))
	})

	t.Run("default outside options fails", func(t *testing.T) {
		err := CheckSpecs(specSet(types.ParameterSpec{
			Name: "tier", Type: types.ParamString, Default: "bronze",
			Options: []interface{}{"gold", "silver"},
		}))
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidDefinition))
	})

	t.Run("default that cannot coerce fails", func(t *testing.T) {
		err := CheckSpecs(specSet(types.ParameterSpec{Name: "n", Type: types.ParamInteger, Default: "ten"}))
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidDefinition))
	})

	t.Run("unknown type fails", func(t *testing.T) {
		err := CheckSpecs(specSet(types.ParameterSpec{Name: "x", Type: "decimal"}))
		require.Error(t, err)
	})
}
