package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag_String(t *testing.T) {
	assert.Equal(t, "base", Base.String())
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "right", Right.String())
}

func TestTag_Ordering(t *testing.T) {
	assert.Less(t, int(Base), int(Left))
	assert.Less(t, int(Left), int(Right))
}

func TestTag_GitStage(t *testing.T) {
	assert.Equal(t, 1, Base.GitStage())
	assert.Equal(t, 2, Left.GitStage())
	assert.Equal(t, 3, Right.GitStage())
}
