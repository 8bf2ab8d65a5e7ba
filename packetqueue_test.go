package avplayer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketQueue_EnqueueDequeuePop(t *testing.T) {
	q := NewPacketQueue()
	require.True(t, q.IsEmpty())

	q.Enqueue(&Packet{StreamIndex: 0, Size: 100})
	assert.False(t, q.IsEmpty())
	assert.Equal(t, 100, q.Bytes())

	pkt, aborted := q.Dequeue()
	require.False(t, aborted)
	require.NotNil(t, pkt)
	assert.Equal(t, 100, pkt.Size)

	// still counted until Pop
	assert.Equal(t, 100, q.Bytes())
	q.Pop()
	assert.Equal(t, 0, q.Bytes())
	assert.True(t, q.IsEmpty())
}

func TestPacketQueue_TryDequeueEmpty(t *testing.T) {
	q := NewPacketQueue()
	pkt, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Nil(t, pkt)
}

func TestPacketQueue_TryDequeueThenPop(t *testing.T) {
	q := NewPacketQueue()
	q.Enqueue(&Packet{Size: 10})

	pkt, ok := q.TryDequeue()
	require.True(t, ok)
	require.NotNil(t, pkt)

	// a second TryDequeue while serving still sees the same front packet
	pkt2, ok2 := q.TryDequeue()
	require.True(t, ok2)
	assert.Same(t, pkt, pkt2)

	q.Pop()
	assert.True(t, q.IsEmpty())
}

func TestPacketQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewPacketQueue()
	done := make(chan struct{})

	go func() {
		pkt, aborted := q.Dequeue()
		assert.False(t, aborted)
		assert.NotNil(t, pkt)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Dequeue returned before anything was enqueued")
	default:
	}

	q.Enqueue(&Packet{Size: 1})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dequeue never woke up after Enqueue")
	}
}

func TestPacketQueue_AbortWakesDequeue(t *testing.T) {
	q := NewPacketQueue()
	done := make(chan bool, 1)

	go func() {
		_, aborted := q.Dequeue()
		done <- aborted
	}()

	time.Sleep(20 * time.Millisecond)
	q.Abort()

	select {
	case aborted := <-done:
		assert.True(t, aborted)
	case <-time.After(time.Second):
		t.Fatal("Dequeue never woke up after Abort")
	}
}

func TestPacketQueue_Clear(t *testing.T) {
	q := NewPacketQueue()
	q.Enqueue(&Packet{Size: 10})
	q.Enqueue(&Packet{Size: 20})
	q.SetPTS(3.5)

	q.Clear()
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Bytes())
	assert.Equal(t, float64(0), q.PTS())
}

func TestPacketQueue_WaitForFinished_BlocksWhileServing(t *testing.T) {
	q := NewPacketQueue()
	q.Enqueue(&Packet{Size: 1})

	pkt, ok := q.TryDequeue()
	require.True(t, ok)
	require.NotNil(t, pkt)

	finished := make(chan struct{})
	go func() {
		q.WaitForFinished()
		close(finished)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-finished:
		t.Fatal("WaitForFinished returned while a packet was still being served")
	default:
	}

	q.Pop()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("WaitForFinished never unblocked after Pop")
	}
}

func TestPacketQueue_WaitForFinished_ReturnsImmediatelyWhenIdle(t *testing.T) {
	q := NewPacketQueue()
	done := make(chan struct{})
	go func() {
		q.WaitForFinished()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForFinished blocked on an idle queue")
	}
}

func TestPacketQueue_Enough(t *testing.T) {
	q := NewPacketQueue()
	assert.False(t, q.Enough())
	for i := 0; i < minEnoughPackets; i++ {
		q.Enqueue(&Packet{Size: 1})
	}
	assert.True(t, q.Enough())
}

func TestPacketQueue_EnoughHonorsFrameRate(t *testing.T) {
	q := NewPacketQueue()
	q.SetFrameRate(1.0 / 100) // 100fps -> want 100 packets, above the 50 floor
	for i := 0; i < 60; i++ {
		q.Enqueue(&Packet{Size: 1})
	}
	assert.False(t, q.Enough())
	for i := 0; i < 40; i++ {
		q.Enqueue(&Packet{Size: 1})
	}
	assert.True(t, q.Enough())
}

func TestPacketQueue_ConcurrentProducerConsumer(t *testing.T) {
	q := NewPacketQueue()
	const n = 200

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Enqueue(&Packet{Size: 1})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for {
				pkt, ok := q.TryDequeue()
				if !ok {
					time.Sleep(time.Millisecond)
					continue
				}
				_ = pkt
				q.Pop()
				break
			}
		}
	}()

	wg.Wait()
	assert.True(t, q.IsEmpty())
}
