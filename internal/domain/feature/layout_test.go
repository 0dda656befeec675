package feature

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/soclens/internal/domain"
)

func testLayout() Layout {
	return Layout{
		TextWidth:         4,
		CategoricalFields: []string{"threat_type", "status"},
		CategoricalWidths: []int{3, 2},
		NumericFields:     []string{"hour", "month"},
	}
}

func TestLayout_Width(t *testing.T) {
	assert.Equal(t, 11, testLayout().Width())
	assert.Equal(t, 5, testLayout().CategoricalWidth())
}

func TestLayout_CheckDeclared(t *testing.T) {
	l := testLayout()

	require.NoError(t, l.CheckDeclared("clf", Layout{}, 11))
	require.NoError(t, l.CheckDeclared("clf", l, 11))

	err := l.CheckDeclared("clf", Layout{}, 12)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeatureMismatch))

	swapped := l
	swapped.NumericFields = []string{"month", "hour"}
	err = l.CheckDeclared("clf", swapped, 11)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeatureMismatch))
	assert.Contains(t, err.Error(), "numeric order")

	reordered := l
	reordered.CategoricalFields = []string{"status", "threat_type"}
	require.ErrorIs(t, l.CheckDeclared("clf", reordered, 11), domain.ErrFeatureMismatch)
}

func TestNew_Blocks(t *testing.T) {
	l := testLayout()
	v, err := New(l, []float64{1, 0, 0, 0}, []float64{0, 1, 0, 1, 0}, []float64{0.5, -0.5})
	require.NoError(t, err)

	assert.Equal(t, 11, v.Width())
	assert.Equal(t, []float64{1, 0, 0, 0}, v.Text())
	assert.Equal(t, []float64{0, 1, 0, 1, 0}, v.Categorical())
	assert.Equal(t, []float64{0.5, -0.5}, v.Numeric())
}

func TestNew_BlockWidthMismatch(t *testing.T) {
	l := testLayout()
	_, err := New(l, []float64{1, 0, 0}, make([]float64, 5), make([]float64, 2))
	require.ErrorIs(t, err, domain.ErrFeatureMismatch)

	var me *domain.MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "text block", me.Component)
	assert.Equal(t, 4, me.Want)
	assert.Equal(t, 3, me.Got)
}
