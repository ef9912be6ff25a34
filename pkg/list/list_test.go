package list_test

import (
	"testing"

	"stegodb/pkg/list"

	"github.com/stretchr/testify/require"
)

func collect(l *list.List[int]) []int {
	var out []int
	l.Map(func(link *list.Link[int]) {
		out = append(out, link.GetValue())
	})
	return out
}

func TestPushOrdering(t *testing.T) {
	l := list.NewList[int]()
	l.PushTail(2)
	l.PushTail(3)
	l.PushHead(1)
	require.Equal(t, []int{1, 2, 3}, collect(l))
	require.Equal(t, 1, l.PeekHead().GetValue())
	require.Equal(t, 3, l.PeekTail().GetValue())
}

func TestPopSelf(t *testing.T) {
	t.Run("Only", func(t *testing.T) {
		l := list.NewList[int]()
		link := l.PushHead(1)
		link.PopSelf()
		require.Nil(t, l.PeekHead())
		require.Nil(t, l.PeekTail())
	})
	t.Run("Head", func(t *testing.T) {
		l := list.NewList[int]()
		l.PushTail(1)
		l.PushTail(2)
		l.PushTail(3)
		l.PeekHead().PopSelf()
		require.Equal(t, []int{2, 3}, collect(l))
	})
	t.Run("Tail", func(t *testing.T) {
		l := list.NewList[int]()
		l.PushTail(1)
		l.PushTail(2)
		l.PushTail(3)
		l.PeekTail().PopSelf()
		require.Equal(t, []int{1, 2}, collect(l))
	})
	t.Run("Middle", func(t *testing.T) {
		l := list.NewList[int]()
		l.PushTail(1)
		mid := l.PushTail(2)
		l.PushTail(3)
		mid.PopSelf()
		require.Equal(t, []int{1, 3}, collect(l))
		require.Equal(t, 3, l.PeekHead().GetNext().GetValue())
		require.Equal(t, 1, l.PeekTail().GetPrev().GetValue())
	})
}

func TestFind(t *testing.T) {
	l := list.NewList[int]()
	for i := 0; i < 5; i++ {
		l.PushTail(i)
	}
	link := l.Find(func(link *list.Link[int]) bool { return link.GetValue() == 3 })
	require.NotNil(t, link)
	require.Equal(t, 3, link.GetValue())
	require.Nil(t, l.Find(func(link *list.Link[int]) bool { return link.GetValue() == 9 }))
}
