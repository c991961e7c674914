package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_PreservesOrder(t *testing.T) {
	t.Parallel()

	o := newOutbox()
	for i := 0; i < 10; i++ {
		require.NoError(t, o.push([]byte(fmt.Sprintf("msg-%d", i))))
	}

	for i := 0; i < 10; i++ {
		line, ok := o.pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("msg-%d", i), string(line))
	}
}

func TestOutbox_PopBlocksUntilPush(t *testing.T) {
	t.Parallel()

	o := newOutbox()
	done := make(chan []byte, 1)
	go func() {
		line, _ := o.pop()
		done <- line
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, o.push([]byte("wake")))

	select {
	case line := <-done:
		assert.Equal(t, "wake", string(line))
	case <-time.After(time.Second):
		t.Fatal("pop 未被 push 唤醒")
	}
}

func TestOutbox_VideoAdmissionControl(t *testing.T) {
	t.Parallel()

	o := newOutbox()
	limit := 5
	for i := 0; i < limit-1; i++ {
		require.NoError(t, o.push([]byte("ctrl")))
	}

	// 积压 4 条时还收，第 5 条起丢弃
	assert.True(t, o.pushVideo([]byte("frame"), limit))
	assert.False(t, o.pushVideo([]byte("frame"), limit))
	assert.Equal(t, limit, o.pending())

	// 排空后恢复接收
	for i := 0; i < limit; i++ {
		o.pop()
	}
	assert.True(t, o.pushVideo([]byte("frame"), limit))
}

func TestOutbox_ControlNeverDropped(t *testing.T) {
	t.Parallel()

	o := newOutbox()
	for i := 0; i < 1000; i++ {
		require.NoError(t, o.push([]byte("ctrl")))
	}
	assert.Equal(t, 1000, o.pending())
}

func TestOutbox_Close(t *testing.T) {
	t.Parallel()

	o := newOutbox()
	require.NoError(t, o.push([]byte("last")))
	o.close()

	// 关闭后拒收
	assert.ErrorIs(t, o.push([]byte("late")), ErrSessionClosed)
	assert.False(t, o.pushVideo([]byte("frame"), 5))

	// 已入队的仍可取完
	line, ok := o.pop()
	require.True(t, ok)
	assert.Equal(t, "last", string(line))

	_, ok = o.pop()
	assert.False(t, ok)
}

func TestOutbox_CloseWakesBlockedPop(t *testing.T) {
	t.Parallel()

	o := newOutbox()
	done := make(chan bool, 1)
	go func() {
		_, ok := o.pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	o.close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("close 未唤醒阻塞的 pop")
	}
}
