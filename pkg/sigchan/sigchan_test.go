package sigchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitCoalesces(t *testing.T) {
	c := New()
	c.Emit()
	c.Emit()
	c.Emit()

	<-c.C()
	select {
	case <-c.C():
		t.Fatal("expected a single pending signal")
	default:
	}

	c.Emit()
	_, ok := <-c.C()
	assert.True(t, ok)
}
