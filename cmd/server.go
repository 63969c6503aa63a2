package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/net/websocket"

	"github.com/sbadame/indigo/autoreload"
	"github.com/sbadame/indigo/indigo"
)

var (
	httpPort  = flag.Int("http_port", 8080, "The port to listen on for http requests.")
	random    = flag.Bool("random", false, "When set to true, actually uses a random seed.")
	httpsPort = flag.Int("https_port", 8081, "The port to listen on for https requests.")
	httpsHost = flag.String("https_host", "", "Set this to the hostname to get a Let's Encrypt SSL certificate for.")
	debug     = flag.Bool("debug", false, "Log with the human friendly development logger, debug level included.")
	reloadBin = flag.Bool("autoreload", false, "Restart with the same flags when the binary is replaced.")
	webDir    = flag.String("web_dir", "./web", "Directory with the static client files.")
	keep      = flag.Duration("keep_finished", 10*time.Minute, "How long a finished match stays around for its clients.")

	// Populated at compile time with `go build/run -ldflags "-X main.gitCommit=$(git rev-parse HEAD)"`
	gitCommit string
)

// Wrap error messages into json so that javascript client code can always expect json.
func errorJSON(message string) string {
	b, _ := json.Marshal(struct{ Message string }{message})
	return string(b)
}

// /newMatch request content body json is marshaled into this struct.
type newMatchRequest struct {
	Nickname  string
	PlayFirst bool
}

// /play request content body json is marshaled into this struct.
type playRequest struct {
	MatchID string
	Index   int
}

// /exit request content body json is marshaled into this struct.
type exitRequest struct {
	MatchID string
}

type server struct {
	sync.Mutex
	matches map[string]*Match
	sb      *scoreboard
	log     *zap.Logger
	seed    func() int64
	// Finished matches without clients are forgotten after keep.
	keep time.Duration
}

func newServer(log *zap.Logger, seed func() int64) *server {
	return &server{
		matches: make(map[string]*Match),
		sb:      newScoreboard(),
		log:     log,
		seed:    seed,
		keep:    10 * time.Minute,
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(*webDir)))
	mux.Handle("/join", websocket.Handler(s.join))
	mux.HandleFunc("/debug", s.debug)
	mux.HandleFunc("/newMatch", s.newMatch)
	mux.HandleFunc("/play", s.play)
	mux.HandleFunc("/exit", s.exit)
	mux.HandleFunc("/scores", s.scores)
	return mux
}

func (s *server) match(id string) *Match {
	s.Lock()
	defer s.Unlock()
	return s.matches[id]
}

// reap forgets the matches that finished at least s.keep before now and that nobody is watching.
func (s *server) reap(now time.Time) {
	s.Lock()
	defer s.Unlock()
	for id, m := range s.matches {
		m.Lock()
		if !m.over.IsZero() && len(m.clients) == 0 && now.Sub(m.over) >= s.keep {
			delete(s.matches, id)
			m.log.Debug("match forgotten")
		}
		m.Unlock()
	}
}

func (s *server) reapEvery(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.reap(now)
		}
	}
}

func (s *server) debug(w http.ResponseWriter, r *http.Request) {
	if len(gitCommit) > 0 {
		io.WriteString(w, fmt.Sprintf("Version: git checkout %s\n", gitCommit))
	} else {
		io.WriteString(w, "Built with an unknown git version (-X main.gitCommit was not set)\n")
	}

	s.Lock()
	ids := make([]string, 0, len(s.matches))
	for id := range s.matches {
		ids = append(ids, id)
	}
	s.Unlock()
	sort.Strings(ids)

	for _, id := range ids {
		m := s.match(id)
		m.Lock()
		io.WriteString(w, fmt.Sprintf("MatchID: %s Nickname: %s State: %s Turn: %d\n", m.ID, m.Nickname, m.game.State, m.game.Turn))
		for _, l := range m.logs {
			io.WriteString(w, "  "+l+"\n")
		}
		m.Unlock()
	}
}

func (s *server) newMatch(w http.ResponseWriter, r *http.Request) {
	var req newMatchRequest
	if !parseRequestJSON(w, r, &req) {
		return
	}
	if req.Nickname == "" {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, errorJSON("Nickname field needs to be set."))
		return
	}
	if req.Nickname == "Computer" {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, errorJSON("Nickname Computer is taken."))
		return
	}

	s.reap(time.Now())
	m, err := newMatch(req.Nickname, req.PlayFirst, s.seed(), s.sb, s.log)
	if err != nil {
		s.log.Error("couldn't start a match", zap.String("nickname", req.Nickname), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, errorJSON(err.Error()))
		return
	}

	s.Lock()
	s.matches[m.ID] = m
	s.Unlock()

	io.WriteString(w, fmt.Sprintf(`{"MatchID": %q}`, m.ID))
}

func (s *server) play(w http.ResponseWriter, r *http.Request) {
	var p playRequest
	if !parseRequestJSON(w, r, &p) {
		return
	}
	m := s.match(p.MatchID)
	if m == nil {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, errorJSON(fmt.Sprintf("No match %s", p.MatchID)))
		return
	}

	m.Lock()
	defer m.Unlock()

	if m.game.NextToPlay() != indigo.Human {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, errorJSON("Not your turn!"))
		return
	}

	if err := m.play(p.Index, s.sb); err != nil {
		var me *indigo.MoveError
		if errors.As(err, &me) {
			w.WriteHeader(http.StatusBadRequest)
		} else {
			m.log.Error("play failed", zap.Int("index", p.Index), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
		}
		io.WriteString(w, errorJSON(err.Error()))
		return
	}

	b, err := m.stateJSON()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, errorJSON(err.Error()))
		return
	}
	w.Write(b)
}

func (s *server) exit(w http.ResponseWriter, r *http.Request) {
	var e exitRequest
	if !parseRequestJSON(w, r, &e) {
		return
	}
	m := s.match(e.MatchID)
	if m == nil {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, errorJSON(fmt.Sprintf("No match %s", e.MatchID)))
		return
	}

	m.Lock()
	defer m.Unlock()
	m.exit()
}

func (s *server) scores(w http.ResponseWriter, r *http.Request) {
	nick := r.FormValue("Nickname")
	var v interface{}
	if nick == "" {
		v = struct{ Nicknames []string }{s.sb.nicknames()}
	} else {
		v = s.sb.scores(nick)
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, errorJSON(err.Error()))
		return
	}
	w.Write(b)
}

func (s *server) join(ws *websocket.Conn) {
	defer ws.Close()
	errorf := func(format string, a ...interface{}) {
		io.WriteString(ws, errorJSON(fmt.Sprintf(format, a...)))
	}

	m := s.match(ws.Request().FormValue("MatchID"))
	if m == nil {
		errorf("MatchID has an invalid value: %q", ws.Request().FormValue("MatchID"))
		return
	}

	m.Lock()
	update := m.subscribe()
	m.Unlock()
	defer func() {
		m.Lock()
		m.unsubscribe(update)
		m.Unlock()
	}()

	// Clients never send anything, a failed read means they went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var discard string
		for websocket.Message.Receive(ws, &discard) == nil {
		}
	}()

	// Push the initial state, then keep pushing the full state with every change.
	for {
		m.Lock()
		b, err := m.stateJSON()
		finished := m.game.State == indigo.Finished
		m.Unlock()
		if err != nil {
			errorf("state json send error: %v", err)
			return
		}
		if err := websocket.Message.Send(ws, string(b)); err != nil {
			m.log.Debug("client went away", zap.Error(err))
			return
		}
		if finished {
			return
		}

		// Wait for an update...
		select {
		case <-update:
		case <-gone:
			m.log.Debug("client went away")
			return
		}
	}
}

func parseRequestJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		io.WriteString(w, errorJSON(fmt.Sprintf("%s needs a POST, got %s", r.URL.Path, r.Method)))
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, errorJSON(fmt.Sprintf("Error parsing json: %v", err)))
		return false
	}
	return true
}

func newLogger() (*zap.Logger, error) {
	if *debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\nBuilt at version: %s\n", os.Args[0], gitCommit)
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	seed := func() int64 { return 1 }
	if *random {
		seed = func() int64 { return time.Now().UnixNano() }
	}
	s := newServer(log, seed)
	s.keep = *keep
	go s.reapEvery(context.Background(), time.Minute)

	if *reloadBin {
		go autoreload.Watch(context.Background(), log, time.Second)
	}

	if *httpsHost != "" {
		// Still create an http server, but make it always redirect to https
		hs := http.Server{
			Addr:    ":" + strconv.Itoa(*httpPort),
			Handler: http.RedirectHandler("https://"+*httpsHost, http.StatusMovedPermanently),
		}
		go func() { log.Fatal("http redirect server stopped", zap.Error(hs.ListenAndServe())) }()

		// To avoid the need to bind to 80/443 directly (and thus requiring the server to run as root)
		// we need to create our own autocert.Manager instead of using autocert.NewListener()
		m := autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache("golang-autocert"),
			HostPolicy: autocert.HostWhitelist(*httpsHost),
		}
		ss := &http.Server{
			Addr:      ":" + strconv.Itoa(*httpsPort),
			Handler:   s.routes(),
			TLSConfig: m.TLSConfig(),
		}
		log.Info("serving https", zap.String("host", *httpsHost), zap.Int("port", *httpsPort))
		// The https server does all of the work and blocks until it's closed.
		log.Fatal("https server stopped", zap.Error(ss.ListenAndServeTLS("", "")))
	} else {
		// Don't do any SSL stuff (useful for development)
		log.Info("serving http", zap.Int("port", *httpPort))
		log.Fatal("http server stopped", zap.Error(http.ListenAndServe(":"+strconv.Itoa(*httpPort), s.routes())))
	}
}
