package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/nasmini/backend/internal/hub"
	"github.com/stretchr/testify/require"
)

type fakeLiveConn struct {
	deadlines []time.Time
	writes    []interface{}
	writeErr  error
}

func (c *fakeLiveConn) SetWriteDeadline(t time.Time) error {
	c.deadlines = append(c.deadlines, t)
	return nil
}

func (c *fakeLiveConn) WriteJSON(v interface{}) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, v)
	return nil
}

func TestTimedConn_ArmsDeadlineBeforeEveryWrite(t *testing.T) {
	fake := &fakeLiveConn{}
	conn := timedConn{conn: fake}

	before := time.Now()
	require.NoError(t, conn.WriteJSON("one"))
	require.NoError(t, conn.WriteJSON("two"))

	require.Equal(t, []interface{}{"one", "two"}, fake.writes)
	require.Len(t, fake.deadlines, 2)
	for _, d := range fake.deadlines {
		require.True(t, d.After(before))
		require.True(t, d.Before(before.Add(writeWait+time.Minute)))
	}
}

func TestTimedConn_TimedOutWriterIsPruned(t *testing.T) {
	h := hub.New()
	stalled := timedConn{conn: &fakeLiveConn{writeErr: errors.New("i/o timeout")}}
	healthy := &fakeLiveConn{}

	h.Join("alice", stalled)
	h.Join("alice", timedConn{conn: healthy})

	h.Broadcast("alice", "tick")
	require.Equal(t, 1, h.Count("alice"))
	require.Equal(t, []interface{}{"tick"}, healthy.writes)
}

func TestClosePayload(t *testing.T) {
	p := closePayload(closeUnauthenticated, "session required")
	require.Equal(t, byte(4401>>8), p[0])
	require.Equal(t, byte(4401&0xff), p[1])
	require.Equal(t, "session required", string(p[2:]))
}
