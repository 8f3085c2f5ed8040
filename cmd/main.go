package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	gommon "github.com/labstack/gommon/log"

	"writegeist/pkg/diff"
	"writegeist/pkg/inference"
	"writegeist/pkg/server"
	"writegeist/pkg/store"
	"writegeist/pkg/tts"
	"writegeist/pkg/utils"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL)

	applyUserConfig("config.json")

	dataDir := os.Getenv("WRITEGEIST_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	st, err := store.New(store.Config{DataDir: dataDir})
	if err != nil {
		log.Fatal("opening store", "error", err)
	}
	defer st.Close()

	inf := buildInferencer()
	if inf == nil {
		log.Warn("no inference backend configured; ingestion and audio endpoints will answer 501")
	}

	var queue *tts.Queue
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		queue, err = tts.New(tts.NewClient(apiKey), st, filepath.Join(dataDir, "audio"))
		if err != nil {
			log.Fatal("creating audio queue", "error", err)
		}
		queue.Start()
		defer queue.Stop()
	}

	srv := server.NewServer(ctx, server.Config{
		Inferencer: inf,
		Store:      st,
		Queue:      queue,
		History:    diff.NewHistory(filepath.Join(dataDir, "PatchHistory.json")),
	})
	srv.Echo.Logger.SetLevel(gommon.INFO)

	addr := ":8000"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("shutdown", "error", err)
		}
		done()
		close(finishedShutDown)
	}()

	log.Info("server listening", "addr", addr)
	if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
	}
	<-finishedShutDown
}

// buildInferencer picks the inference backend from the environment. A Grok
// or Gemini key takes precedence over OpenAI; with no key at all but a local
// endpoint configured, the OpenAI client points there.
func buildInferencer() inference.Inferencer {
	if grokKey := os.Getenv("GROK_API_KEY"); grokKey != "" {
		return inference.NewGrokInferencer(grokKey, os.Getenv("GROK_MODEL"))
	}
	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		gemini, err := inference.NewGeminiInferencer(geminiKey, os.Getenv("GEMINI_MODEL"))
		if err != nil {
			log.Error("creating gemini client, falling through", "error", err)
		} else {
			return gemini
		}
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		return inference.NewOpenAIInferencer(apiKey, model)
	}
	if baseURL := os.Getenv("LOCAL_LLM_BASE_URL"); baseURL != "" {
		openAI := inference.NewOpenAIInferencer("", os.Getenv("LOCAL_LLM_MODEL"))
		openAI.ChangeBaseURL(baseURL)
		return openAI
	}
	return nil
}

// applyUserConfig overlays config.json values onto the environment without
// clobbering variables that are already set.
func applyUserConfig(path string) {
	if !utils.Exists(path) {
		return
	}
	cfg, err := utils.Load[map[string]string](path)
	if err != nil {
		log.Warn("reading user config", "path", path, "error", err)
		return
	}
	for k, v := range cfg {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
}
