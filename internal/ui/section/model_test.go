package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/route"
)

func TestView_ShowsSectionAndUser(t *testing.T) {
	r, ok := route.Lookup(route.Lab)
	require.True(t, ok)

	m := New(80, 24)
	m.SetRoute(r, &model.User{Username: "lee", FirstName: "Lee", LastName: "Park", Role: "lab"})

	out := m.View()
	assert.Contains(t, out, "Laboratory")
	assert.Contains(t, out, "Lee Park")
	assert.Contains(t, out, "lab")
	assert.Equal(t, route.Lab, m.Route().ID)
}

func TestView_WithoutUser(t *testing.T) {
	r, _ := route.Lookup(route.Admin)
	m := New(80, 24)
	m.SetRoute(r, nil)

	out := m.View()
	assert.Contains(t, out, "Administration")
	assert.NotContains(t, out, "Signed in as")
}
