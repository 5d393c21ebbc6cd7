package operation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "create node under root",
			msg: CreateNode{
				ElementTypeID: "CLASS__Class",
				ContainerID:   "root-1",
				Location:      &Point{X: 0, Y: 0},
				Args:          map[string]interface{}{"name": "Car", "is_abstract": false},
			},
			want: `{"clientId":"s-1","action":{"args":{"is_abstract":false,"name":"Car"},"containerId":"root-1","elementTypeId":"CLASS__Class","kind":"createNode","location":{"x":0,"y":0}}}`,
		},
		{
			name: "empty delete keeps the list",
			msg:  DeleteElement{ElementIDs: []string{}},
			want: `{"clientId":"s-1","action":{"elementIds":[],"kind":"deleteElement"}}`,
		},
		{
			name: "move keeps size",
			msg: ChangeBounds{NewBounds: []ElementAndBounds{{
				ElementID:   "e",
				NewSize:     EmptyDimension,
				NewPosition: Point{X: 10, Y: 20},
			}}},
			want: `{"clientId":"s-1","action":{"kind":"changeBounds","newBounds":[{"elementId":"e","newSize":{"width":-1,"height":-1},"newPosition":{"x":10,"y":20}}]}}`,
		},
		{
			name: "undo",
			msg:  Undo{},
			want: `{"clientId":"s-1","action":{"kind":"glspUndo"}}`,
		},
		{
			name: "error notification",
			msg:  NliError{Message: "Input text is empty, nothing todo"},
			want: `{"clientId":"s-1","action":{"kind":"nliError","message":"Input text is empty, nothing todo"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode("s-1", tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestChannelEmitter(t *testing.T) {
	e := NewChannelEmitter(1)
	require.NoError(t, e.Emit(context.Background(), "s-1", Undo{}))

	env := <-e.C()
	assert.Equal(t, "s-1", env.SessionID)
	assert.Equal(t, Undo{}, env.Message)

	require.NoError(t, e.Emit(context.Background(), "s-1", Undo{}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Emit(ctx, "s-1", Undo{}), context.DeadlineExceeded)
}
