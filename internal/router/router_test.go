package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"sportstrivia/internal/auth"
	"sportstrivia/internal/broadcast"
	"sportstrivia/internal/game"
	"sportstrivia/internal/ledger"
	"sportstrivia/internal/match"
	"sportstrivia/internal/models"
	"sportstrivia/internal/questions"
	"sportstrivia/internal/testutil"
)

const quiet = 30 * time.Millisecond

type testEnv struct {
	r   *Router
	hub *broadcast.Hub
	dir *game.Directory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := broadcast.NewHub(logger)
	dir := game.NewDirectory()
	coord := match.NewCoordinator(hub, questions.NewStatic(questions.SampleQuestions), ledger.NewMemory(),
		match.Config{QuestionsPerMatch: 3, RoundDuration: time.Minute, Intermission: time.Hour}, logger)
	t.Cleanup(coord.Stop)
	return &testEnv{
		r:   New(dir, hub, coord, Config{DefaultRoomSize: 4, MaxRoomSize: 8}, logger),
		hub: hub,
		dir: dir,
	}
}

func send(t *testing.T, r *Router, s *Session, format string, args ...any) error {
	t.Helper()
	return r.Handle(s, []byte(fmt.Sprintf(format, args...)))
}

// connect joins the lobby as userID and consumes the rooms_list reply
func (e *testEnv) connect(t *testing.T, userID string) (*Session, *testutil.FakeConn) {
	t.Helper()
	conn := testutil.NewFakeConn()
	s := NewSession(conn, nil)
	if err := send(t, e.r, s, `{"type":"join_lobby","userId":%q,"username":%q}`, userID, userID+"-name"); err != nil {
		t.Fatalf("join_lobby: %v", err)
	}
	testutil.Expect(t, conn, models.TypeRoomsList)
	return s, conn
}

func (e *testEnv) createRoom(t *testing.T, s *Session, conn *testutil.FakeConn, maxPlayers int) models.RoomSnapshot {
	t.Helper()
	send(t, e.r, s, `{"type":"create_room","roomName":"Friday Quiz","category":"football","maxPlayers":%d}`, maxPlayers)
	var msg models.RoomMessage
	testutil.Decode(t, testutil.Expect(t, conn, models.TypeRoomJoined), &msg)
	return msg.Room
}

func hostOf(snap models.RoomSnapshot) string {
	for _, p := range snap.Players {
		if p.IsHost {
			return p.ID
		}
	}
	return ""
}

func roomOf(t *testing.T, m testutil.Message) models.RoomSnapshot {
	t.Helper()
	var msg models.RoomMessage
	testutil.Decode(t, m, &msg)
	return msg.Room
}

func TestMalformedMessagesAreDropped(t *testing.T) {
	e := newTestEnv(t)
	s, conn := e.connect(t, "alice")

	frames := map[string]string{
		"not json":             `{"type":`,
		"unknown type":         `{"type":"teleport"}`,
		"join without room":    `{"type":"join_room"}`,
		"answer without index": `{"type":"submit_answer"}`,
		"negative answer":      `{"type":"submit_answer","answerIndex":-1}`,
		"answer of wrong type": `{"type":"submit_answer","answerIndex":"b"}`,
		"negative time":        `{"type":"submit_answer","answerIndex":1,"timeRemaining":-2}`,
		"ready without value":  `{"type":"set_ready"}`,
		"negative room size":   `{"type":"create_room","roomName":"x","category":"football","maxPlayers":-1}`,
	}
	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			if err := e.r.Handle(s, []byte(frame)); !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("Handle(%s) = %v, want ErrMalformedMessage", frame, err)
			}
		})
	}
	testutil.Quiet(t, conn, quiet)
	if e.dir.Len() != 0 {
		t.Errorf("directory has %d rooms", e.dir.Len())
	}
}

func TestMessagesBeforeJoinLobby(t *testing.T) {
	e := newTestEnv(t)
	s := NewSession(testutil.NewFakeConn(), nil)

	err := send(t, e.r, s, `{"type":"create_room","roomName":"x","category":"football"}`)
	if !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("got %v, want ErrNoIdentity", err)
	}
	if e.dir.Len() != 0 {
		t.Error("room created without identity")
	}
}

func TestCreateAndJoinRoom(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	bob, bobConn := e.connect(t, "bob")

	room := e.createRoom(t, alice, aliceConn, 4)
	if len(room.Players) != 1 || !room.Players[0].IsHost || !room.Players[0].IsReady {
		t.Fatalf("unexpected new room %+v", room)
	}
	if alice.RoomID() != room.ID {
		t.Errorf("session room = %q, want %q", alice.RoomID(), room.ID)
	}

	var list models.RoomsListMessage
	testutil.Decode(t, testutil.Expect(t, bobConn, models.TypeRoomsList), &list)
	if len(list.Rooms) != 1 || list.Rooms[0].ID != room.ID {
		t.Fatalf("lobby did not see the new room: %+v", list)
	}

	send(t, e.r, bob, `{"type":"join_room","roomId":%q}`, room.ID)
	joined := roomOf(t, testutil.Expect(t, bobConn, models.TypeRoomJoined))
	updated := roomOf(t, testutil.Expect(t, aliceConn, models.TypeRoomUpdated))
	for _, snap := range []models.RoomSnapshot{joined, updated} {
		if len(snap.Players) != 2 || snap.Players[1].ID != "bob" || snap.Players[1].IsHost {
			t.Errorf("unexpected snapshot after join %+v", snap)
		}
	}
}

func TestJoinRoomErrors(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	bob, _ := e.connect(t, "bob")
	carol, carolConn := e.connect(t, "carol")

	room := e.createRoom(t, alice, aliceConn, 2)
	send(t, e.r, bob, `{"type":"join_room","roomId":%q}`, room.ID)
	send(t, e.r, carol, `{"type":"join_room","roomId":%q}`, room.ID)

	if msg := testutil.Expect(t, carolConn, models.TypeError); msg["message"] != game.ErrRoomFull.Error() {
		t.Errorf("error = %v, want %q", msg["message"], game.ErrRoomFull)
	}
	if carol.RoomID() != "" {
		t.Error("rejected player has a current room")
	}

	send(t, e.r, carol, `{"type":"join_room","roomId":"nope"}`)
	if msg := testutil.Expect(t, carolConn, models.TypeError); msg["message"] != game.ErrRoomNotFound.Error() {
		t.Errorf("error = %v, want %q", msg["message"], game.ErrRoomNotFound)
	}
}

func TestRoomCapacity(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{0, 4},
		{1, 2},
		{3, 3},
		{100, 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.requested), func(t *testing.T) {
			e := newTestEnv(t)
			s, conn := e.connect(t, "alice")
			if got := e.createRoom(t, s, conn, tt.requested).MaxPlayers; got != tt.want {
				t.Errorf("maxPlayers = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNoFifthPlayerInFourSeatRoom(t *testing.T) {
	e := newTestEnv(t)
	host, hostConn := e.connect(t, "p0")
	room := e.createRoom(t, host, hostConn, 4)

	for i := 1; i <= 4; i++ {
		s, conn := e.connect(t, fmt.Sprintf("p%d", i))
		send(t, e.r, s, `{"type":"join_room","roomId":%q}`, room.ID)
		if i == 4 {
			testutil.Expect(t, conn, models.TypeError)
		}
	}

	r, _ := e.dir.GetRoom(room.ID)
	r.Lock()
	defer r.Unlock()
	if r.Len() != 4 {
		t.Errorf("room has %d players, want 4", r.Len())
	}
}

func TestCurrentRoomComesFromSession(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	mallory, malloryConn := e.connect(t, "mallory")
	room := e.createRoom(t, alice, aliceConn, 4)

	send(t, e.r, mallory, `{"type":"start_game","roomId":%q}`, room.ID)
	if msg := testutil.Expect(t, malloryConn, models.TypeError); msg["message"] != errNoRoom.Error() {
		t.Errorf("error = %v, want %q", msg["message"], errNoRoom)
	}
	send(t, e.r, mallory, `{"type":"set_ready","ready":false,"roomId":%q}`, room.ID)
	testutil.Expect(t, malloryConn, models.TypeError)

	r, _ := e.dir.GetRoom(room.ID)
	r.Lock()
	defer r.Unlock()
	if r.Status() != models.StatusWaiting {
		t.Errorf("status = %s, want waiting", r.Status())
	}
}

func TestStartGameFlow(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	bob, bobConn := e.connect(t, "bob")
	room := e.createRoom(t, alice, aliceConn, 4)
	send(t, e.r, bob, `{"type":"join_room","roomId":%q}`, room.ID)
	testutil.Expect(t, bobConn, models.TypeRoomJoined)

	send(t, e.r, alice, `{"type":"start_game"}`)
	if msg := testutil.Expect(t, aliceConn, models.TypeError); msg["message"] != game.ErrPlayersNotReady.Error() {
		t.Errorf("error = %v, want %q", msg["message"], game.ErrPlayersNotReady)
	}

	send(t, e.r, bob, `{"type":"set_ready","ready":true}`)
	send(t, e.r, bob, `{"type":"start_game"}`)
	if msg := testutil.Expect(t, bobConn, models.TypeError); msg["message"] != game.ErrNotHost.Error() {
		t.Errorf("error = %v, want %q", msg["message"], game.ErrNotHost)
	}

	send(t, e.r, alice, `{"type":"start_game"}`)
	for _, conn := range []*testutil.FakeConn{aliceConn, bobConn} {
		started := roomOf(t, testutil.Expect(t, conn, models.TypeGameStarted))
		if started.Status != models.StatusPlaying || started.TotalQuestions != 3 {
			t.Errorf("unexpected game_started room %+v", started)
		}
		q := testutil.Expect(t, conn, models.TypeQuestion)
		if _, leaked := q["question"].(map[string]any)["correctAnswer"]; leaked {
			t.Error("question carries the correct answer")
		}
	}

	send(t, e.r, alice, `{"type":"submit_answer","answerIndex":1,"timeRemaining":12.5}`)
	send(t, e.r, bob, `{"type":"submit_answer","answerIndex":0}`)

	var res models.RoundResultsMessage
	testutil.Decode(t, testutil.Expect(t, bobConn, models.TypeRoundResults), &res)
	if res.Round != 0 || len(res.Results) != 2 {
		t.Errorf("unexpected round results %+v", res)
	}
}

// join makes s join roomID and consumes its own room_joined and
// room_updated frames
func (e *testEnv) join(t *testing.T, s *Session, conn *testutil.FakeConn, roomID string) {
	t.Helper()
	send(t, e.r, s, `{"type":"join_room","roomId":%q}`, roomID)
	testutil.Expect(t, conn, models.TypeRoomJoined)
	testutil.Expect(t, conn, models.TypeRoomUpdated)
}

func TestLeaveRoomMigratesHostAndRemovesEmptyRoom(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	bob, bobConn := e.connect(t, "bob")
	room := e.createRoom(t, alice, aliceConn, 4)
	e.join(t, bob, bobConn, room.ID)

	send(t, e.r, alice, `{"type":"leave_room"}`)
	testutil.Expect(t, aliceConn, models.TypeRoomsList)
	updated := roomOf(t, testutil.Expect(t, bobConn, models.TypeRoomUpdated))
	if len(updated.Players) != 1 || updated.Players[0].ID != "bob" || !updated.Players[0].IsHost {
		t.Errorf("bob should be the only player and host: %+v", updated)
	}

	send(t, e.r, bob, `{"type":"leave_room"}`)
	if _, err := e.dir.GetRoom(room.ID); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("empty room still listed: %v", err)
	}
}

func TestHostMigratesInJoinOrder(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	bob, bobConn := e.connect(t, "bob")
	carol, carolConn := e.connect(t, "carol")
	room := e.createRoom(t, alice, aliceConn, 4)
	e.join(t, bob, bobConn, room.ID)
	e.join(t, carol, carolConn, room.ID)

	send(t, e.r, alice, `{"type":"leave_room"}`)
	updated := roomOf(t, testutil.Expect(t, carolConn, models.TypeRoomUpdated))
	if len(updated.Players) != 2 || hostOf(updated) != "bob" {
		t.Fatalf("host = %q with %d players, want bob with 2", hostOf(updated), len(updated.Players))
	}

	send(t, e.r, bob, `{"type":"leave_room"}`)
	updated = roomOf(t, testutil.Expect(t, carolConn, models.TypeRoomUpdated))
	if len(updated.Players) != 1 || hostOf(updated) != "carol" {
		t.Fatalf("carol should be the only player and host: %+v", updated)
	}

	send(t, e.r, carol, `{"type":"set_ready","ready":true}`)
	send(t, e.r, carol, `{"type":"start_game"}`)
	if msg := testutil.Expect(t, carolConn, models.TypeError); msg["message"] != game.ErrNotEnoughPlayers.Error() {
		t.Errorf("error = %v, want %q", msg["message"], game.ErrNotEnoughPlayers)
	}
}

func detach(s *Session) {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}

func TestDetachedSessionDoesNotKeepCreatedRoom(t *testing.T) {
	e := newTestEnv(t)
	s, conn := e.connect(t, "alice")
	detach(s)

	e.r.createRoom(s, "alice", "alice-name", models.CreateRoom{RoomName: "Ghost", Category: "football"})
	if e.dir.Len() != 0 {
		t.Errorf("directory has %d rooms, want 0", e.dir.Len())
	}
	if s.RoomID() != "" {
		t.Errorf("detached session recorded room %q", s.RoomID())
	}
	var list models.RoomsListMessage
	testutil.Decode(t, testutil.Expect(t, conn, models.TypeRoomsList), &list)
	if len(list.Rooms) != 0 {
		t.Errorf("lobby lists abandoned room: %+v", list.Rooms)
	}
}

func TestDetachedSessionDoesNotKeepJoinedSeat(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	bob, bobConn := e.connect(t, "bob")
	room := e.createRoom(t, alice, aliceConn, 4)
	detach(bob)

	e.r.joinRoom(bob, "bob", "bob-name", room.ID)
	testutil.Quiet(t, bobConn, quiet)

	r, _ := e.dir.GetRoom(room.ID)
	r.Lock()
	defer r.Unlock()
	if r.Len() != 1 || r.HostID() != "alice" {
		t.Errorf("room has %d players with host %q, want alice alone", r.Len(), r.HostID())
	}
	if bob.RoomID() != "" {
		t.Errorf("detached session recorded room %q", bob.RoomID())
	}
}

func TestDisconnectLeavesRoom(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceConn := e.connect(t, "alice")
	bob, bobConn := e.connect(t, "bob")
	room := e.createRoom(t, alice, aliceConn, 4)
	send(t, e.r, bob, `{"type":"join_room","roomId":%q}`, room.ID)
	testutil.Expect(t, aliceConn, models.TypeRoomUpdated)

	e.r.Disconnect(bob)
	updated := roomOf(t, testutil.Expect(t, aliceConn, models.TypeRoomUpdated))
	if len(updated.Players) != 1 {
		t.Errorf("room still has %d players", len(updated.Players))
	}
	if e.hub.Connected("bob") {
		t.Error("bob still registered")
	}
	if !bobConn.Closed() {
		t.Error("bob's connection not closed")
	}
}

func TestSecondConnectionReplacesFirst(t *testing.T) {
	e := newTestEnv(t)
	first, firstConn := e.connect(t, "alice")
	room := e.createRoom(t, first, firstConn, 4)

	second, _ := e.connect(t, "alice")
	if !firstConn.Closed() {
		t.Error("first connection not closed")
	}
	if _, err := e.dir.GetRoom(room.ID); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("abandoned room still present: %v", err)
	}

	// the old read loop ending must not disturb the new session
	e.r.Disconnect(first)
	if !e.hub.Connected("alice") {
		t.Error("replacement connection was unregistered")
	}
	if second.UserID() != "alice" {
		t.Errorf("second session user = %q", second.UserID())
	}
}

func TestHeartbeatEchoesToSender(t *testing.T) {
	e := newTestEnv(t)
	s, conn := e.connect(t, "alice")
	_, other := e.connect(t, "bob")

	if err := send(t, e.r, s, `{"type":"heartbeat"}`); err != nil {
		t.Fatal(err)
	}
	testutil.Expect(t, conn, models.TypeHeartbeat)
	testutil.Quiet(t, other, quiet)
}

func TestVerifiedIdentity(t *testing.T) {
	e := newTestEnv(t)
	id := &auth.Identity{UserID: "u1", Username: "alice"}

	spoof := NewSession(testutil.NewFakeConn(), id)
	err := send(t, e.r, spoof, `{"type":"join_lobby","userId":"u2","username":"eve"}`)
	if !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("got %v, want ErrIdentityMismatch", err)
	}

	conn := testutil.NewFakeConn()
	s := NewSession(conn, id)
	if err := send(t, e.r, s, `{"type":"join_lobby"}`); err != nil {
		t.Fatal(err)
	}
	testutil.Expect(t, conn, models.TypeRoomsList)
	if s.UserID() != "u1" {
		t.Errorf("user = %q, want u1", s.UserID())
	}
}
