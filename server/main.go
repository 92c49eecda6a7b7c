package main

import (
	"flag"
	"net/http"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/hexwave/wavelet/commons"
	"github.com/hexwave/wavelet/config"
)

// inbound pairs a decoded message with the connection that sent it, so
// error replies can go back to the sender alone.
type inbound struct {
	msg  commons.Message
	conn *websocket.Conn
}

// Upgrader instance to upgrade all HTTP connections to a WebSocket.
var upgrader = websocket.Upgrader{}

// Map to store currently active client connections. Connection goroutines
// and the message loop both touch it, so every access goes through the
// accessors below under clientsMu.
var (
	clientsMu     sync.Mutex
	activeClients = make(map[*websocket.Conn]uuid.UUID)
)

// Channel for client messages.
var messageChan = make(chan inbound)

var blips *session

// addClient registers a connection and assigns it a UUID.
func addClient(conn *websocket.Conn) uuid.UUID {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	id := uuid.New()
	activeClients[conn] = id
	return id
}

// removeClient drops a connection from the registry.
func removeClient(conn *websocket.Conn) {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	delete(activeClients, conn)
}

// clients returns a snapshot of the registry for iteration.
func clients() map[*websocket.Conn]uuid.UUID {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	out := make(map[*websocket.Conn]uuid.UUID, len(activeClients))
	for conn, id := range activeClients {
		out[conn] = id
	}
	return out
}

func main() {
	// Parse flags.
	addr := flag.String("addr", ":9000", "Server's network address")
	dbPath := flag.String("db", "wavelet.db", "Path to the blip store")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Open the blip store and restore persisted blips.
	store, err := config.Open(*dbPath, logrus.StandardLogger())
	if err != nil {
		logrus.WithError(err).Fatal("Error opening blip store, exiting.")
	}
	defer store.Close()

	ns, err := store.Namespace("blips")
	if err != nil {
		logrus.WithError(err).Fatal("Error loading blip namespace, exiting.")
	}
	ns.SetAutoTimer(2 * time.Second)

	blips = newSession(ns)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleConn)

	// Handle incoming messages.
	go handleMsg()

	// Start the server.
	logrus.Infof("Starting server on %s", *addr)
	err = http.ListenAndServe(*addr, mux)
	if err != nil {
		logrus.WithError(err).Fatal("Error starting server, exiting.")
	}
}

// handleConn handles incoming HTTP connections by adding the connection to
// activeClients and reads messages from the connection.
func handleConn(w http.ResponseWriter, r *http.Request) {
	// Upgrade incoming HTTP connections to WebSocket connections.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("Error upgrading connection to websocket")
		return
	}
	defer conn.Close()

	// Generate a UUID for the client.
	id := addClient(conn)

	for {
		var msg commons.Message

		// Read message from the connection.
		err := conn.ReadJSON(&msg)
		if err != nil {
			logrus.Infof("Closing connection with ID: %v", id)
			removeClient(conn)
			break
		}

		// Set message ID.
		msg.ID = id

		// Send message to messageChan.
		messageChan <- inbound{msg: msg, conn: conn}
	}
}

// handleMsg listens to the messageChan channel, applies operation scripts to
// the session's blips, and broadcasts the results.
func handleMsg() {
	for {
		in := <-messageChan
		msg := in.msg

		t := time.Now().Format(time.ANSIC)

		switch msg.Type {
		case commons.JoinMessage:
			color.Green("%s >> %s %s\n", t, msg.Username, msg.Text)
			broadcast(msg, msg.ID)

		case commons.BlipReqMessage:
			var snap *commons.BlipSnapshot
			if msg.BlipID == uuid.Nil {
				snap = blips.create(msg.Username)
				color.Green("%s >> %s created blip %s\n", t, msg.Username, snap.BlipID)
			} else {
				var err error
				snap, err = blips.snapshot(msg.BlipID)
				if err != nil {
					reply(in.conn, commons.Message{Type: commons.ErrorMessage, Text: err.Error()})
					continue
				}
			}
			reply(in.conn, commons.Message{Type: commons.BlipSyncMessage, BlipID: snap.BlipID, Snapshot: snap})

		case commons.OpScriptMessage:
			snap, err := blips.applyScript(msg.BlipID, msg.Username, msg.Script)
			if err != nil {
				logrus.WithError(err).WithField("user", msg.Username).Warn("rejected operation script")
				reply(in.conn, commons.Message{Type: commons.ErrorMessage, Text: err.Error()})
				continue
			}
			color.Green("%s >> %s applied %d ops to blip %s\n", t, msg.Username, len(msg.Script), msg.BlipID)
			broadcast(commons.Message{Type: commons.BlipSyncMessage, BlipID: snap.BlipID, Snapshot: snap}, uuid.Nil)

		case commons.AnnotateMessage:
			if msg.Annotation == nil {
				reply(in.conn, commons.Message{Type: commons.ErrorMessage, Text: "annotate message without a range"})
				continue
			}
			snap, err := blips.annotate(msg.BlipID, msg.Username, *msg.Annotation)
			if err != nil {
				logrus.WithError(err).WithField("user", msg.Username).Warn("rejected annotation")
				reply(in.conn, commons.Message{Type: commons.ErrorMessage, Text: err.Error()})
				continue
			}
			color.Green("%s >> %s annotated blip %s\n", t, msg.Username, msg.BlipID)
			broadcast(commons.Message{Type: commons.BlipSyncMessage, BlipID: snap.BlipID, Snapshot: snap}, uuid.Nil)

		default:
			logrus.WithField("type", msg.Type).Warn("unknown message type")
		}
	}
}

// broadcast sends a message to every active client except the one whose
// UUID matches skip. Pass uuid.Nil to reach everyone.
func broadcast(msg commons.Message, skip uuid.UUID) {
	for client, id := range clients() {
		if skip != uuid.Nil && id == skip {
			continue
		}
		if err := client.WriteJSON(msg); err != nil {
			logrus.WithError(err).Error("Error sending message to client")
			client.Close()
			removeClient(client)
		}
	}
}

// reply answers a single connection.
func reply(conn *websocket.Conn, msg commons.Message) {
	if err := conn.WriteJSON(msg); err != nil {
		logrus.WithError(err).Error("Error replying to client")
		conn.Close()
		removeClient(conn)
	}
}
