package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"violet/internal/assistant"
	"violet/internal/audio"
	"violet/internal/brain"
	"violet/internal/chat"
	"violet/internal/ipc"
	"violet/internal/notify"
	"violet/internal/session"
	"violet/internal/settings"
	"violet/internal/stt"
	"violet/internal/tts"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

const healthInterval = 10 * time.Second

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	socketPath := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	settingsPath := cli.String("settings", defaultSettingsPath(), "Settings file path")
	beepPath := cli.String("beep", "beep.mp3", "Notification sample path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	chatURL := os.Getenv("CHAT_URL")
	if chatURL == "" {
		chatURL = "http://localhost:8001"
	}
	pushURL := os.Getenv("PUSH_URL")
	if pushURL == "" {
		pushURL = "ws://localhost:8001/ws"
	}

	store, err := settings.NewStore(*settingsPath)
	if err != nil {
		log.Error("Failed to load settings", "path", *settingsPath, "err", err)
		os.Exit(1)
	}

	knowledge, err := brain.NewStore()
	if err != nil {
		log.Error("Failed to load dataset", "err", err)
		os.Exit(1)
	}

	log.Debug("Loaded dataset")

	var httpClient *http.Client
	if proxyAddr := os.Getenv("SOCKS_PROXY"); proxyAddr != "" {
		httpClient, err = chat.NewSOCKSClient(proxyAddr)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", proxyAddr, "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded proxy")
	}

	speaker, err := tts.NewSpeaker(store)
	if err != nil {
		log.Error("Failed to init speech synthesis", "err", err)
		os.Exit(1)
	}
	defer speaker.Close()

	log.Debug("Loaded speaker")

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	modelPath := os.Getenv("WHISPER_MODEL")
	if modelPath == "" {
		modelPath = "models/ggml-base.bin"
	}
	whisper, err := stt.NewTranscriber(modelPath)
	if err != nil {
		log.Error("Failed to init whisper", "model", modelPath, "err", err)
		os.Exit(1)
	}
	defer whisper.Close()

	log.Debug("Loaded whisper")

	asst := assistant.New(assistant.Config{
		Resolver: brain.NewResolver(knowledge),
		Backend:  chat.NewClient(chatURL, httpClient),
		Speaker:  speaker,
		Settings: store,
		Sound:    notify.NewPlayer(*beepPath),
	})

	capture := audio.NewCapture(rec, whisper)
	ctrl := session.NewController(session.Config{
		Recognizer: capture,
		Settings:   store,
		Send:       asst.Send,
		Stage:      asst.StageInput,
		Busy:       asst.Loading,
	})
	capture.Bind(ctrl)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go asst.RunHealthProbe(ctx, healthInterval)
	go asst.RunPushListener(ctx, pushURL)

	if err := ipc.StartServer(*socketPath, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "toggle":
			ctrl.Toggle()
		case "say":
			asst.Send(msg.Arg)
		case "send":
			asst.SendStaged()
		case "mute":
			asst.ToggleMute()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful")

	<-ctx.Done()
	log.Info("Shutting down")
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "violet-settings.json"
	}
	return filepath.Join(dir, "violet", "settings.json")
}
