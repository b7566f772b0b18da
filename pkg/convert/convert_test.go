package convert

import (
	"testing"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/timex"

	"github.com/stretchr/testify/assert"
)

func TestStructAssign(t *testing.T) {
	type src struct {
		ID    int64
		Title string
		Extra string
	}
	type dst struct {
		ID    int64
		Title string
	}
	d := &dst{}
	StructAssign(&src{ID: 4, Title: "t", Extra: "x"}, d)
	assert.Equal(t, dst{ID: 4, Title: "t"}, *d)
}

func TestStructAssignTime(t *testing.T) {
	type stored struct {
		ID        int64
		Parent    *int64
		CreatedAt timex.Time
	}
	type plain struct {
		ID        int64
		Parent    *int64
		CreatedAt time.Time
	}

	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	parent := int64(9)

	p := StructAssignTime(&stored{ID: 1, Parent: &parent, CreatedAt: timex.Time(at)}, &plain{}).(*plain)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, int64(9), *p.Parent)
	assert.True(t, at.Equal(p.CreatedAt))

	back := StructAssignTime(p, &stored{}).(*stored)
	assert.True(t, at.Equal(back.CreatedAt.Time()))
}
