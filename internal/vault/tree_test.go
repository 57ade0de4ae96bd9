package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildrenOf(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	photos, err := s.AddFolder("Photos", root.ID)
	require.NoError(t, err)
	docs, err := s.AddFolder("Documents", root.ID)
	require.NoError(t, err)
	_, err = s.AddFolder("Vacation", photos.ID)
	require.NoError(t, err)

	children, err := s.ChildrenOf(root.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	// creation order
	assert.Equal(t, photos.ID, children[0].ID)
	assert.Equal(t, docs.ID, children[1].ID)

	_, err = s.ChildrenOf("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDescendantsOf(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	photos, err := s.AddFolder("Photos", root.ID)
	require.NoError(t, err)
	vacation, err := s.AddFolder("Vacation", photos.ID)
	require.NoError(t, err)
	beach, err := s.AddFolder("Beach", vacation.ID)
	require.NoError(t, err)
	docs, err := s.AddFolder("Documents", root.ID)
	require.NoError(t, err)

	all, err := s.DescendantsOf(root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{photos.ID, vacation.ID, beach.ID, docs.ID}, all)

	sub, err := s.DescendantsOf(photos.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{vacation.ID, beach.ID}, sub)

	leaf, err := s.DescendantsOf(beach.ID)
	require.NoError(t, err)
	assert.Empty(t, leaf)

	_, err = s.DescendantsOf("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDescendantsOfNeverContainsSelf(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	a, err := s.AddFolder("a", root.ID)
	require.NoError(t, err)
	b, err := s.AddFolder("b", a.ID)
	require.NoError(t, err)
	c, err := s.AddFolder("c", b.ID)
	require.NoError(t, err)

	for _, f := range []Folder{root, a, b, c} {
		ids, err := s.DescendantsOf(f.ID)
		require.NoError(t, err)
		assert.NotContains(t, ids, f.ID)
	}
}

func TestDescendantsOfTerminatesOnCycle(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	a, err := s.AddFolder("a", root.ID)
	require.NoError(t, err)
	b, err := s.AddFolder("b", a.ID)
	require.NoError(t, err)

	// corrupt the graph behind the store's back: a <-> b cycle
	s.folders[a.ID].ParentID = b.ID

	ids, err := s.DescendantsOf(a.ID)
	require.NoError(t, err)
	assert.NotContains(t, ids, a.ID)
}

func TestPathTo(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	photos, err := s.AddFolder("Photos", root.ID)
	require.NoError(t, err)
	vacation, err := s.AddFolder("Vacation", photos.ID)
	require.NoError(t, err)

	path, err := s.PathTo(vacation.ID)
	require.NoError(t, err)
	// root first, target last, length = depth + 1
	require.Len(t, path, 3)
	assert.Equal(t, root.ID, path[0].ID)
	assert.Equal(t, photos.ID, path[1].ID)
	assert.Equal(t, vacation.ID, path[2].ID)
}

func TestPathToRoot(t *testing.T) {
	s := newTestStore()

	path, err := s.PathTo(s.Root().ID)
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, s.Root().ID, path[0].ID)
}

func TestPathToUnknownFolder(t *testing.T) {
	s := newTestStore()

	_, err := s.PathTo("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPathToTerminatesOnCycle(t *testing.T) {
	s := newTestStore()

	a, err := s.AddFolder("a", s.Root().ID)
	require.NoError(t, err)
	b, err := s.AddFolder("b", a.ID)
	require.NoError(t, err)

	s.folders[a.ID].ParentID = b.ID

	path, err := s.PathTo(b.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, b.ID, path[len(path)-1].ID)
}
