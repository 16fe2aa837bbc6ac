package editor

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"map-editor/models"
)

func snap(ids ...string) Snapshot {
	areas := make([]models.AreaRecord, 0, len(ids))
	for _, id := range ids {
		areas = append(areas, area(id, "#fff"))
	}
	return NewSnapshot(areas, nil)
}

func TestHistoryUndoWalksBackThroughPushes(t *testing.T) {
	initial := snap()
	h := NewHistoryStack(initial, 10)

	pushed := []Snapshot{snap("a"), snap("a", "b"), snap("a", "b", "c"), snap("b", "c")}
	for _, s := range pushed {
		h.Push(s)
	}
	assert.Equal(t, h.Len(), 5)
	assert.Equal(t, h.Cursor(), 4)

	for i := len(pushed) - 1; i >= 0; i-- {
		s, ok := h.Undo()
		assert.Equal(t, ok, true)
		if i == 0 {
			assert.Equal(t, s.Equal(initial), true)
		} else {
			assert.Equal(t, s.Equal(pushed[i-1]), true)
		}
	}
	_, ok := h.Undo()
	assert.Equal(t, ok, false)
	assert.Equal(t, h.Cursor(), 0)
}

func TestHistoryPushAfterUndoDiscardsFuture(t *testing.T) {
	h := NewHistoryStack(snap(), 10)
	a, b, c, d := snap("a"), snap("b"), snap("c"), snap("d")
	h.Push(a)
	h.Push(b)
	h.Push(c)

	s, ok := h.Undo()
	assert.Equal(t, ok, true)
	assert.Equal(t, s.Equal(b), true)

	h.Push(d)
	assert.Equal(t, h.CanRedo(), false)
	_, ok = h.Redo()
	assert.Equal(t, ok, false)
	assert.Equal(t, h.Current().Equal(d), true)

	s, _ = h.Undo()
	assert.Equal(t, s.Equal(b), true)
	s, _ = h.Redo()
	assert.Equal(t, s.Equal(d), true)
	assert.Equal(t, s.Equal(c), false)
}

func TestHistoryEvictsOldestOverLimit(t *testing.T) {
	s1, s2, s3 := snap("1"), snap("2"), snap("3")
	h := NewHistoryStack(s1, 2)
	h.Push(s2)
	h.Push(s3)

	assert.Equal(t, h.Len(), 2)
	assert.Equal(t, h.Cursor(), 1)
	assert.Equal(t, h.Current().Equal(s3), true)

	s, ok := h.Undo()
	assert.Equal(t, ok, true)
	assert.Equal(t, s.Equal(s2), true)

	_, ok = h.Undo()
	assert.Equal(t, ok, false)
}

func TestHistoryEvictionKeepsCursorAfterUndo(t *testing.T) {
	h := NewHistoryStack(snap("0"), 3)
	h.Push(snap("1"))
	h.Push(snap("2"))
	h.Undo()
	h.Push(snap("x"))
	h.Push(snap("y"))

	// [0 1 x y] trimmed to [1 x y]
	assert.Equal(t, h.Len(), 3)
	s, _ := h.Undo()
	assert.Equal(t, s.Equal(snap("x")), true)
	s, _ = h.Undo()
	assert.Equal(t, s.Equal(snap("1")), true)
	assert.Equal(t, h.CanUndo(), false)
}

func TestHistoryDefaultLimit(t *testing.T) {
	h := NewHistoryStack(snap(), 0)
	assert.Equal(t, h.Limit(), DefaultHistoryLimit)
	for i := 0; i < DefaultHistoryLimit+10; i++ {
		h.Push(snap())
	}
	assert.Equal(t, h.Len(), DefaultHistoryLimit)
	assert.Equal(t, h.Cursor(), DefaultHistoryLimit-1)
}

func TestHistoryRewrite(t *testing.T) {
	h := NewHistoryStack(snap("temp-1"), 5)
	h.Push(snap("temp-1", "2"))
	h.Rewrite(func(s Snapshot) Snapshot {
		return s.RenameIDs(map[string]string{"temp-1": "srv-9"})
	})

	_, ok := h.Current().Area("srv-9")
	assert.Equal(t, ok, true)
	s, _ := h.Undo()
	_, ok = s.Area("temp-1")
	assert.Equal(t, ok, false)
	_, ok = s.Area("srv-9")
	assert.Equal(t, ok, true)
}

func TestSnapshotIsIndependentOfSource(t *testing.T) {
	areas := []models.AreaRecord{area("a1", "#fff")}
	s := NewSnapshot(areas, nil)
	areas[0].Boundary[0] = models.Position{0, 0}
	areas[0].Color = "#000"

	got, _ := s.Area("a1")
	assert.Equal(t, got.Color, "#fff")
	assert.Equal(t, got.Boundary.Equal(square(55.2, 25.1)), true)

	out := s.Areas()
	out[0].Boundary[1] = models.Position{1, 1}
	got, _ = s.Area("a1")
	assert.Equal(t, got.Boundary.Equal(square(55.2, 25.1)), true)
}
