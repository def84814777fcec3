package ginject

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type containerTestWidget struct{ Name string }

type containerTestCloser struct {
	closed *[]string
	name   string
}

func (c *containerTestCloser) Close() error {
	*c.closed = append(*c.closed, c.name)
	return nil
}

func TestContainer_GetGroupReturnsEveryMemberInOrder(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(func() *containerTestWidget { return &containerTestWidget{Name: "one"} }).Group("widgets")
	b.Bind(func() *containerTestWidget { return &containerTestWidget{Name: "two"} }).Group("widgets")

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	widgets, err := c.GetGroup(reflect.TypeOf(&containerTestWidget{}), "widgets")
	require.NoError(t, err)
	require.Len(t, widgets, 2)
	assert.Equal(t, "one", widgets[0].(*containerTestWidget).Name)
	assert.Equal(t, "two", widgets[1].(*containerTestWidget).Name)
}

func TestContainer_CloseIsIdempotentAndDisposesLIFO(t *testing.T) {
	t.Parallel()

	var closed []string
	b := NewBinder()
	b.Bind(func() *containerTestCloser { return &containerTestCloser{closed: &closed, name: "a"} }).Singleton()
	b.Bind(func() *containerTestCloser { return &containerTestCloser{closed: &closed, name: "b"} }).Named("b").Singleton()

	c, err := b.Build()
	require.NoError(t, err)

	_, err = GetInstance[*containerTestCloser](c)
	require.NoError(t, err)
	_, err = GetNamed[*containerTestCloser](c, "b")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Equal(t, []string{"b", "a"}, closed)
}

func TestContainer_OperationsFailAfterClose(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(func() *containerTestWidget { return &containerTestWidget{} })

	c, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.GetInstance(reflect.TypeOf(&containerTestWidget{}))
	assert.ErrorIs(t, err, ErrContainerClosed)

	_, err = c.GetNamed(reflect.TypeOf(&containerTestWidget{}), "x")
	assert.ErrorIs(t, err, ErrContainerClosed)

	_, err = c.GetGroup(reflect.TypeOf(&containerTestWidget{}), "g")
	assert.ErrorIs(t, err, ErrContainerClosed)

	assert.ErrorIs(t, c.InjectMembers(&containerTestWidget{}), ErrContainerClosed)
}

func TestContainer_NewScopeCarriesScopeID(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	ctx := c.NewScope("session-1")
	assert.Equal(t, "session-1", ctx.ScopeID)
}
