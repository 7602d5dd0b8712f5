package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"version"},
		{"keys"},
		{"token", "issue"},
		{"server"},
		{"check"},
		{"book"},
		{"journal", "list"},
	} {
		c, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}

func TestBookRequiresCustomerFlags(t *testing.T) {
	c := newBookCmd()
	for _, name := range []string{"date", "time", "name", "phone", "email", "venue"} {
		f := c.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, []string{"true"}, f.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
	assert.Equal(t, "false", c.Flags().Lookup("submit").DefValue)
}

func TestCheckDefaults(t *testing.T) {
	c := newCheckCmd()
	assert.Equal(t, "oggi", c.Flags().Lookup("date").DefValue)
	assert.Equal(t, "2", c.Flags().Lookup("party-size").DefValue)
}
