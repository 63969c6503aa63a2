package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/sbadame/indigo/indigo"
)

func fixedSeed() int64 { return 1 }

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func startMatch(t *testing.T, h http.Handler, body string) string {
	t.Helper()
	w := post(t, h, "/newMatch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("/newMatch = %d %s", w.Code, w.Body)
	}
	var v struct{ MatchID string }
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad /newMatch response %s: %v", w.Body, err)
	}
	return v.MatchID
}

func TestMatch(t *testing.T) {
	sb := newScoreboard()
	m, err := newMatch("a", true, 3, sb, zap.NewNop())
	if err != nil {
		t.Fatalf("Couldn't start a match: %v", err)
	}
	if m.game.NextToPlay() != indigo.Human || len(m.game.Player(indigo.Human).Hand) != indigo.HandSize {
		t.Fatalf("the human should be dealt in and playing first")
	}

	for m.game.State != indigo.Finished {
		if err := m.play(0, sb); err != nil {
			t.Fatalf("play on turn %d: %v", m.game.Turn, err)
		}
	}
	if m.game.Turn != indigo.LastTurn {
		t.Errorf("game ended on turn %d, want %d", m.game.Turn, indigo.LastTurn)
	}
	if last := m.events[len(m.events)-1]; last.Type != "gameover" {
		t.Errorf("last event is %+v, want gameover", last)
	}
	h, c := m.game.Player(indigo.Human).Score(), m.game.Player(indigo.Computer).Score()
	wins := 0
	if h > c {
		wins = 1
	}
	if d := cmp.Diff(sb.scores("a"), scorecard{Games: 1, Wins: wins, Points: h, ComputerPoints: c}); d != "" {
		t.Errorf("mismatch (-got, +wanted):\n%s", d)
	}
}

func TestComputerGoesFirst(t *testing.T) {
	m, err := newMatch("b", false, 3, newScoreboard(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if m.game.Turn != 1 || m.game.NextToPlay() != indigo.Human {
		t.Errorf("turn=%d next=%v, the computer should have played once", m.game.Turn, m.game.NextToPlay())
	}
	if len(m.events) == 0 || m.events[0].Type != "play" {
		t.Errorf("events = %+v, want the computer's play first", m.events)
	}
}

func TestScoreboard(t *testing.T) {
	sb := newScoreboard()
	sb.record("a", 10, 5)
	sb.record("a", 2, 20)
	sb.record("b", 1, 2)

	if d := cmp.Diff(sb.scores("a"), scorecard{Games: 2, Wins: 1, Points: 12, ComputerPoints: 25}); d != "" {
		t.Errorf("mismatch (-got, +wanted):\n%s", d)
	}
	if d := cmp.Diff(sb.scores("nobody"), scorecard{}); d != "" {
		t.Errorf("mismatch (-got, +wanted):\n%s", d)
	}
	if d := cmp.Diff(sb.nicknames(), []string{"a", "b"}); d != "" {
		t.Errorf("mismatch (-got, +wanted):\n%s", d)
	}
}

func TestHandlers(t *testing.T) {
	s := newServer(zap.NewNop(), fixedSeed)
	h := s.routes()

	if w := post(t, h, "/newMatch", `{"Nickname": ""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty nickname: got %d", w.Code)
	}
	if w := post(t, h, "/newMatch", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad json: got %d", w.Code)
	}
	if w := post(t, h, "/play", `{"MatchID": "nope", "Index": 0}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown match: got %d", w.Code)
	}

	id := startMatch(t, h, `{"Nickname": "sandro", "PlayFirst": true}`)

	if w := post(t, h, "/play", `{"MatchID": "`+id+`", "Index": 6}`); w.Code != http.StatusBadRequest {
		t.Errorf("index out of range: got %d %s", w.Code, w.Body)
	}

	w := post(t, h, "/play", `{"MatchID": "`+id+`", "Index": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("/play = %d %s", w.Code, w.Body)
	}
	var state struct {
		MatchID string
		State   struct {
			Turn int
			Hand []indigo.Card
		}
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("bad /play response: %v", err)
	}
	// The human played and the computer answered.
	if state.MatchID != id || state.State.Turn != 2 || len(state.State.Hand) != indigo.HandSize-1 {
		t.Errorf("unexpected state %+v", state)
	}

	if w := post(t, h, "/exit", `{"MatchID": "`+id+`"}`); w.Code != http.StatusOK {
		t.Errorf("/exit = %d", w.Code)
	}
	if w := post(t, h, "/play", `{"MatchID": "`+id+`", "Index": 0}`); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Not your turn!") {
		t.Errorf("play after exit = %d %s", w.Code, w.Body)
	}

	// An exited match isn't on the scoreboard.
	r := httptest.NewRequest(http.MethodGet, "/scores?Nickname=sandro", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, r)
	if got := strings.TrimSpace(rw.Body.String()); got != `{"Games":0,"Wins":0,"Points":0,"ComputerPoints":0}` {
		t.Errorf("/scores = %s", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/debug", nil)
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, r)
	if !strings.Contains(rw.Body.String(), "MatchID: "+id) {
		t.Errorf("/debug doesn't list the match:\n%s", rw.Body)
	}
}

func TestJoin(t *testing.T) {
	s := newServer(zap.NewNop(), fixedSeed)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	id := startMatch(t, ts.Config.Handler, `{"Nickname": "sandro", "PlayFirst": false}`)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/join?MatchID=" + id
	ws, err := websocket.Dial(url, "", ts.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	var first string
	if err := websocket.Message.Receive(ws, &first); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !strings.Contains(first, `"MatchID":"`+id+`"`) || !strings.Contains(first, `"Type":"play"`) {
		t.Errorf("first message = %s", first)
	}

	if w := post(t, ts.Config.Handler, "/exit", `{"MatchID": "`+id+`"}`); w.Code != http.StatusOK {
		t.Fatalf("/exit = %d", w.Code)
	}
	var second string
	if err := websocket.Message.Receive(ws, &second); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !strings.Contains(second, `"State":"Finished"`) {
		t.Errorf("second message = %s", second)
	}
}

func TestJoinClientGoesAway(t *testing.T) {
	s := newServer(zap.NewNop(), fixedSeed)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	id := startMatch(t, ts.Config.Handler, `{"Nickname": "sandro", "PlayFirst": true}`)
	m := s.match(id)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/join?MatchID=" + id

	for i := 0; i < 5; i++ {
		ws, err := websocket.Dial(url, "", ts.URL)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		var first string
		if err := websocket.Message.Receive(ws, &first); err != nil {
			t.Fatalf("receive: %v", err)
		}
		ws.Close()
	}

	clients := func() int {
		m.Lock()
		defer m.Unlock()
		return len(m.clients)
	}
	deadline := time.Now().Add(5 * time.Second)
	for clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d clients still subscribed after they disconnected", clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReap(t *testing.T) {
	s := newServer(zap.NewNop(), fixedSeed)
	s.keep = time.Minute
	h := s.routes()

	running := startMatch(t, h, `{"Nickname": "a", "PlayFirst": true}`)
	exited := startMatch(t, h, `{"Nickname": "b", "PlayFirst": true}`)
	watched := startMatch(t, h, `{"Nickname": "c", "PlayFirst": true}`)
	for _, id := range []string{exited, watched} {
		if w := post(t, h, "/exit", `{"MatchID": "`+id+`"}`); w.Code != http.StatusOK {
			t.Fatalf("/exit = %d", w.Code)
		}
	}
	m := s.match(watched)
	m.Lock()
	m.subscribe()
	m.Unlock()

	s.reap(time.Now())
	for _, id := range []string{running, exited, watched} {
		if s.match(id) == nil {
			t.Errorf("match %s forgotten before keep went by", id)
		}
	}

	s.reap(time.Now().Add(2 * time.Minute))
	if s.match(exited) != nil {
		t.Errorf("exited match %s still around", exited)
	}
	if s.match(running) == nil || s.match(watched) == nil {
		t.Errorf("running and watched matches should be kept")
	}
}
