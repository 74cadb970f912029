package api

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateDocument(t *testing.T) {
	state := NewSessionState()

	t.Run("InitialDocument", func(t *testing.T) {
		assert.Equal(t, DefaultDocument, state.Document())
		assert.Contains(t, state.Document(), "bpmn:definitions")
		_, ok := state.LastUpdated()
		assert.False(t, ok)
	})

	t.Run("SetDocument", func(t *testing.T) {
		state.SetDocument("<bpmn:definitions><bpmn:process/></bpmn:definitions>")
		assert.Equal(t, "<bpmn:definitions><bpmn:process/></bpmn:definitions>", state.Document())
		_, ok := state.LastUpdated()
		assert.True(t, ok)
	})

	t.Run("SetDocumentDoesNotAppendVersion", func(t *testing.T) {
		assert.Empty(t, state.Versions())
	})
}

func TestSessionStateVersions(t *testing.T) {
	state := NewSessionState()

	t.Run("SaveVersionSnapshotsCurrentDocument", func(t *testing.T) {
		state.SetDocument("<test>d1</test>")
		state.SaveVersion()
		state.SetDocument("<test>d2</test>")
		state.SaveVersion()

		versions := state.Versions()
		require.Len(t, versions, 2)
		assert.Equal(t, "<test>d1</test>", versions[0].XML)
		assert.Equal(t, "<test>d2</test>", versions[1].XML)
		assert.NotEmpty(t, versions[0].Timestamp)
	})

	t.Run("VersionCapEvictsOldest", func(t *testing.T) {
		state.Reset()
		for i := 0; i < 60; i++ {
			state.SetDocument(fmt.Sprintf("<v>%d</v>", i))
			state.SaveVersion()
		}
		versions := state.Versions()
		require.Len(t, versions, 50)
		assert.Equal(t, "<v>10</v>", versions[0].XML)
		assert.Equal(t, "<v>59</v>", versions[49].XML)
	})
}

func TestSessionStateLocks(t *testing.T) {
	state := NewSessionState()

	t.Run("LockAndUnlock", func(t *testing.T) {
		state.Lock("Task_1", "alice")
		assert.Equal(t, "alice", state.Locks()["Task_1"])

		state.Unlock("Task_1")
		_, present := state.Locks()["Task_1"]
		assert.False(t, present)
	})

	t.Run("UnlockMissingElementIsNoop", func(t *testing.T) {
		state.Unlock("never-locked")
		assert.Empty(t, state.Locks())
	})

	t.Run("LastWriterWins", func(t *testing.T) {
		// Deliberate current behavior: no contention check on lock.
		state.Lock("Task_1", "alice")
		state.Lock("Task_1", "bob")
		assert.Equal(t, "bob", state.Locks()["Task_1"])
	})

	t.Run("ReleaseLocksOf", func(t *testing.T) {
		state.Reset()
		state.Lock("Task_1", "alice")
		state.Lock("Task_2", "bob")
		state.Lock("Task_3", "alice")

		released := state.ReleaseLocksOf("alice")
		assert.ElementsMatch(t, []string{"Task_1", "Task_3"}, released)
		assert.Equal(t, map[string]string{"Task_2": "bob"}, state.Locks())
	})

	t.Run("ReleaseLocksOfIsIdempotent", func(t *testing.T) {
		before := state.Locks()
		released := state.ReleaseLocksOf("alice")
		assert.Empty(t, released)
		assert.Equal(t, before, state.Locks())
	})
}

func TestSessionStateActivityLog(t *testing.T) {
	state := NewSessionState()

	t.Run("AppendReturnsEntry", func(t *testing.T) {
		entry := state.AppendActivity("alice connected")
		assert.Equal(t, "alice connected", entry.Message)
		assert.NotEmpty(t, entry.Timestamp)
		require.Len(t, state.ActivityLog(), 1)
	})

	t.Run("CapRetainsMostRecent", func(t *testing.T) {
		state.Reset()
		for i := 0; i < 75; i++ {
			state.AppendActivity(fmt.Sprintf("event %d", i))
		}
		entries := state.ActivityLog()
		require.Len(t, entries, 50)
		assert.Equal(t, "event 25", entries[0].Message)
		assert.Equal(t, "event 74", entries[49].Message)
	})
}

func TestSessionStateChatLog(t *testing.T) {
	state := NewSessionState()

	t.Run("PreservesOrder", func(t *testing.T) {
		state.AppendChat("alice", "hi")
		state.AppendChat("bob", "yo")

		chat := state.ChatLog()
		require.Len(t, chat, 2)
		assert.Equal(t, "alice", chat[0].Username)
		assert.Equal(t, "hi", chat[0].Message)
		assert.Equal(t, "bob", chat[1].Username)
		assert.Equal(t, "yo", chat[1].Message)
	})

	t.Run("CapRetainsMostRecent", func(t *testing.T) {
		state.Reset()
		for i := 0; i < 120; i++ {
			state.AppendChat("alice", fmt.Sprintf("msg %d", i))
		}
		chat := state.ChatLog()
		require.Len(t, chat, 100)
		assert.Equal(t, "msg 20", chat[0].Message)
		assert.Equal(t, "msg 119", chat[99].Message)
	})
}

func TestSessionStateSnapshot(t *testing.T) {
	state := NewSessionState()
	state.SetDocument("<doc/>")
	state.Lock("Task_1", "alice")
	state.AppendActivity("alice connected")
	state.AppendChat("alice", "hi")
	state.SaveVersion()

	snapshot := state.Snapshot()
	assert.Equal(t, "<doc/>", snapshot.Document)
	assert.Equal(t, map[string]string{"Task_1": "alice"}, snapshot.Locks)
	require.Len(t, snapshot.ActivityLog, 1)
	require.Len(t, snapshot.ChatLog, 1)
	require.Len(t, snapshot.Versions, 1)
	assert.False(t, snapshot.LastUpdated.IsZero())

	t.Run("ContainersAreCopies", func(t *testing.T) {
		snapshot.Locks["Task_2"] = "mallory"
		snapshot.ActivityLog[0].Message = "tampered"
		snapshot.ChatLog[0].Message = "tampered"

		_, present := state.Locks()["Task_2"]
		assert.False(t, present)
		assert.Equal(t, "alice connected", state.ActivityLog()[0].Message)
		assert.Equal(t, "hi", state.ChatLog()[0].Message)
	})
}

func TestSessionStateReset(t *testing.T) {
	state := NewSessionState()
	state.SetDocument("<doc/>")
	state.SaveVersion()
	state.Lock("Task_1", "alice")
	state.AppendActivity("alice connected")
	state.AppendChat("alice", "hi")

	state.Reset()

	snapshot := state.Snapshot()
	assert.Equal(t, DefaultDocument, snapshot.Document)
	assert.Empty(t, snapshot.Locks)
	assert.Empty(t, snapshot.ActivityLog)
	assert.Empty(t, snapshot.Versions)
	assert.Empty(t, snapshot.ChatLog)
	assert.True(t, snapshot.LastUpdated.IsZero())
}
