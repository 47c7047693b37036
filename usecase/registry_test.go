package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyshev/ml-research-14team/domain"
)

func TestRegistryValidatesAtLoad(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	for _, summary := range registry.Cases() {
		c, err := registry.Case(summary.Key)
		require.NoError(t, err)
		assert.NotEmpty(t, c.Description)
		assert.NotEmpty(t, c.SuccessCondition)
		assert.Contains(t, c.Profiles, domain.ScammerProfile)
		assert.Contains(t, c.Profiles, domain.AnalystProfile)
	}
}

func TestRegistryUnknownSelections(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	_, err = registry.Case("ponzi")
	var selection *domain.SelectionError
	require.True(t, errors.As(err, &selection))
	assert.Equal(t, "fraud case", selection.Kind)

	_, err = registry.Victim(-1)
	require.True(t, errors.As(err, &selection))
	assert.Equal(t, "victim", selection.Kind)
}

func TestRegistryListingsAreStable(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	cases := registry.Cases()
	require.Len(t, cases, 2)
	assert.Equal(t, "investments", cases[0].Key)
	assert.Equal(t, "secure_account", cases[1].Key)

	victims := registry.Victims()
	require.Len(t, victims, 3)
	for i, v := range victims {
		assert.Equal(t, i, v.Index)
		assert.NotEmpty(t, v.Name)
		assert.NotEmpty(t, v.Bio)
	}
}
