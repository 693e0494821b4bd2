package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/pkg/infodengue"
)

func diseaseQuery(d model.Disease) interface{} {
	return mock.MatchedBy(func(q infodengue.Query) bool {
		return q.Disease == d && q.StartYear == 2024 && q.EndYear == 2024
	})
}

func TestOverview_PartialFailure(t *testing.T) {
	client := &mockClient{}
	client.On("Fetch", mock.Anything, diseaseQuery(model.Dengue)).Return(records(2024, 3), nil).Once()
	client.On("Fetch", mock.Anything, diseaseQuery(model.Chikungunya)).
		Return([]infodengue.Record{}, model.NewDataError(model.Chikungunya, 3550308, errors.New("timeout"))).Once()
	client.On("Fetch", mock.Anything, diseaseQuery(model.Zika)).Return([]infodengue.Record{}, nil).Once()

	p := New(testConfig(), testCatalog(), client)
	ov, err := p.Overview(context.Background(), "", nil, 0)
	require.NoError(t, err)

	assert.Equal(t, 2024, ov.Year)
	assert.Equal(t, "São Paulo - SP", ov.Municipality.Name)
	require.Len(t, ov.Diseases, 3)

	dengue := ov.Diseases[0]
	assert.Equal(t, model.Dengue, dengue.Disease)
	assert.NoError(t, dengue.Err())
	require.Len(t, dengue.Weeks, 3)
	assert.Equal(t, "01 - Jan", dengue.Weeks[0].Label)
	assert.Equal(t, 12.0, dengue.Weeks[0].Cases)
	assert.Equal(t, 12.0+14+16, dengue.Total)

	for _, d := range ov.Diseases[1:] {
		assert.True(t, errors.Is(d.Err(), model.ErrDataUnavailable), string(d.Disease))
		assert.NotEmpty(t, d.Error)
		assert.Empty(t, d.Weeks)
	}

	assert.Equal(t, map[model.Disease]float64{model.Dengue: 42}, ov.Totals())
	client.AssertExpectations(t)
}

func TestOverview_Cancelled(t *testing.T) {
	client := &mockClient{}
	client.On("Fetch", mock.Anything, mock.Anything).Return([]infodengue.Record{}, context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testConfig(), testCatalog(), client)
	_, err := p.Overview(ctx, "", []model.Disease{model.Dengue}, 2024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOverview_UnknownMunicipality(t *testing.T) {
	p := New(testConfig(), testCatalog(), &mockClient{})
	_, err := p.Overview(context.Background(), "Nowhere", nil, 2024)
	assert.True(t, errors.Is(err, model.ErrMunicipalityNotFound))
}
