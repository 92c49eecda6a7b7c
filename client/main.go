package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"

	"github.com/hexwave/wavelet/commons"
)

var logger = logrus.New()

// Flags represents the command-line flags that are passed to the client.
type Flags struct {
	Server string
	Secure bool
	Debug  bool
	Blip   string
}

// parseFlags parses command-line flags.
func parseFlags() Flags {
	serverAddr := flag.String("server", "localhost:9000", "The network address of the server")
	useSecureConn := flag.Bool("secure", false, "Enable a secure WebSocket connection (wss://)")
	enableDebug := flag.Bool("debug", false, "Enable debugging mode to show more verbose logs")
	blipID := flag.String("blip", "", "The UUID of an existing blip to open (a new blip is created when empty)")

	flag.Parse()

	return Flags{
		Server: *serverAddr,
		Secure: *useSecureConn,
		Debug:  *enableDebug,
		Blip:   *blipID,
	}
}

func main() {
	flags := parseFlags()

	logFile, debugLogFile, err := setupLogger(logger)
	if err != nil {
		fmt.Printf("Failed to set up logger: %s\n", err)
		os.Exit(1)
	}
	defer closeLogFiles(logFile, debugLogFile)

	var blipID uuid.UUID
	if flags.Blip != "" {
		blipID, err = uuid.Parse(flags.Blip)
		if err != nil {
			color.Red("Invalid blip ID %q: %s", flags.Blip, err)
			os.Exit(1)
		}
	}

	color.Green("Connecting to server @ %s", flags.Server)
	conn, _, err := createConn(flags)
	if err != nil {
		color.Red("Connection error, exiting: %s", err)
		os.Exit(1)
	}
	defer conn.Close()

	msgs := make(chan commons.Message)
	go readMessages(conn, msgs)

	p := tea.NewProgram(initialModel(conn, msgs, blipID))
	if err := p.Start(); err != nil {
		logger.Errorf("UI error: %v", err)
		fmt.Printf("UI error: %s\n", err)
		os.Exit(1)
	}
}

// createConn creates a WebSocket connection.
func createConn(flags Flags) (*websocket.Conn, *http.Response, error) {
	var u url.URL
	if flags.Secure {
		u = url.URL{Scheme: "wss", Host: flags.Server, Path: "/"}
	} else {
		u = url.URL{Scheme: "ws", Host: flags.Server, Path: "/"}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	return dialer.Dial(u.String(), nil)
}

// readMessages pumps incoming messages into a channel for the UI.
func readMessages(conn *websocket.Conn, msgs chan<- commons.Message) {
	defer close(msgs)
	for {
		var msg commons.Message

		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("websocket error: %v", err)
			}
			return
		}

		logger.Debugf("message received: %+v", msg)
		msgs <- msg
	}
}

// ensureDirExists ensures that a directory exists, and if it isn't present,
// it tries to create a new one.
func ensureDirExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	}

	err := os.Mkdir(path, 0700)
	if err != nil {
		return false, err
	}

	return true, nil
}

// setupLogger initializes the client's logger (logrus).
func setupLogger(logger *logrus.Logger) (*os.File, *os.File, error) {
	// Define log file paths, based on the home directory.
	logPath := "wavelet.log"
	debugLogPath := "wavelet-debug.log"

	homeDirExists := true
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDirExists = false
	}

	waveletDir := filepath.Join(homeDir, ".wavelet")

	dirExists, err := ensureDirExists(waveletDir)
	if err != nil {
		return nil, nil, err
	}

	if dirExists && homeDirExists {
		logPath = filepath.Join(waveletDir, "wavelet.log")
		debugLogPath = filepath.Join(waveletDir, "wavelet-debug.log")
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		fmt.Printf("Logger error, exiting: %s", err)
		return nil, nil, err
	}

	// Create a separate log file for verbose logs.
	debugLogFile, err := os.OpenFile(debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		fmt.Printf("Logger error, exiting: %s", err)
		return nil, nil, err
	}

	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(&writer.Hook{
		Writer: logFile,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: debugLogFile,
		LogLevels: []logrus.Level{
			logrus.TraceLevel,
			logrus.DebugLevel,
			logrus.InfoLevel,
		},
	})

	return logFile, debugLogFile, nil
}

// closeLogFiles closes the log files created by the client.
// closeLogFiles is meant to be used for defer calls.
func closeLogFiles(logFile, debugLogFile *os.File) {
	if err := logFile.Close(); err != nil {
		fmt.Printf("Failed to close log file: %s", err)
		return
	}

	if err := debugLogFile.Close(); err != nil {
		fmt.Printf("Failed to close debug log file: %s", err)
		return
	}
}
